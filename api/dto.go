/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  - Months travel as "YYYY-MM" strings
  - FTE and percentage values travel as decimal strings ("1.125"), never
    as floats
  - Allocation upserts may carry the version the client last read;
    omitting it means last-write-wins

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// PROJECTS / EMPLOYEES
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Client    string `json:"client,omitempty"`
	StartDate string `json:"start_date"`
	Sprints   int    `json:"sprints"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SaveProjectRequest creates or replaces a project record.
type SaveProjectRequest struct {
	ID        string `json:"id,omitempty"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Client    string `json:"client,omitempty"`
	StartDate string `json:"start_date"`
	Sprints   int    `json:"sprints"`
	Status    string `json:"status"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SaveEmployeeRequest creates or replaces an employee record.
type SaveEmployeeRequest struct {
	ID     string `json:"id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"`
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignmentDTO represents a staffing assignment.
type AssignmentDTO struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	EmployeeID  string `json:"employee_id"`
	RoleID      string `json:"role_id,omitempty"`
	LCATID      string `json:"lcat_id,omitempty"`
	FundedHours int    `json:"funded_hours"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CreateAssignmentRequest staffs an employee on a project.
type CreateAssignmentRequest struct {
	ProjectID   string `json:"project_id"`
	EmployeeID  string `json:"employee_id"`
	RoleID      string `json:"role_id,omitempty"`
	LCATID      string `json:"lcat_id,omitempty"`
	FundedHours int    `json:"funded_hours"`
}

// UpdateAssignmentRequest changes role, labor category, or funded hours.
type UpdateAssignmentRequest struct {
	RoleID      string `json:"role_id,omitempty"`
	LCATID      string `json:"lcat_id,omitempty"`
	FundedHours int    `json:"funded_hours"`
}

// BudgetDTO is the lifetime funded-vs-allocated picture for one assignment.
type BudgetDTO struct {
	AssignmentID   string `json:"assignment_id"`
	FundedHours    int    `json:"funded_hours"`
	AllocatedHours int    `json:"allocated_hours"`
	RemainingHours int    `json:"remaining_hours"`
	OverBudget     bool   `json:"over_budget"`
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// AllocationDTO is one cell of the allocation grid.
type AllocationDTO struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	Month        string `json:"month"`
	Hours        int    `json:"hours"`
	Version      int64  `json:"version"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// UpsertAllocationRequest writes one cell. Hours of zero clears the cell.
// Version, when present, is checked against the stored cell; omitting it
// skips the check (last-write-wins).
type UpsertAllocationRequest struct {
	Month   string `json:"month"`
	Hours   int    `json:"hours"`
	Version *int64 `json:"version,omitempty"`
}

// DistributeRequest spreads hours evenly across a month range.
// TotalHours omitted means "spread the remaining budget".
type DistributeRequest struct {
	StartMonth string `json:"start_month"`
	EndMonth   string `json:"end_month"`
	TotalHours *int   `json:"total_hours,omitempty"`
}

// =============================================================================
// MONTHLY OVERRIDES
// =============================================================================

// OverrideDTO is a per-project monthly capacity override.
type OverrideDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Month     string `json:"month"`
	Hours     int    `json:"hours"`
}

// SetOverrideRequest sets the capacity for one (project, month).
type SetOverrideRequest struct {
	Month string `json:"month"`
	Hours int    `json:"hours"`
}

// =============================================================================
// CAPACITY / REPORTS
// =============================================================================

// ProjectHoursDTO is one project's contribution to an employee's month.
type ProjectHoursDTO struct {
	ProjectID      string `json:"project_id"`
	ProjectName    string `json:"project_name"`
	Hours          int    `json:"hours"`
	EffectiveHours int    `json:"effective_hours"`
	FTE            string `json:"fte"`
}

// CapacityDTO is the cross-project view of one employee's month.
type CapacityDTO struct {
	EmployeeID    string            `json:"employee_id"`
	Month         string            `json:"month"`
	TotalHours    int               `json:"total_hours"`
	FTE           string            `json:"fte"`
	OverAllocated bool              `json:"over_allocated"`
	Projects      []ProjectHoursDTO `json:"projects"`
}

// OverAllocationEntryDTO flags an employee whose month exceeded 100%.
type OverAllocationEntryDTO struct {
	EmployeeID string            `json:"employee_id"`
	Name       string            `json:"name"`
	Month      string            `json:"month"`
	TotalHours int               `json:"total_hours"`
	FTE        string            `json:"fte"`
	Projects   []ProjectHoursDTO `json:"projects"`
}

// BenchEntryDTO flags an employee with spare capacity.
type BenchEntryDTO struct {
	EmployeeID     string            `json:"employee_id"`
	Name           string            `json:"name"`
	TotalHours     int               `json:"total_hours"`
	FTE            string            `json:"fte"`
	AvailableHours int               `json:"available_hours"`
	Projects       []ProjectHoursDTO `json:"projects"`
}

// UtilizationDTO is allocated-over-funded across a roster.
type UtilizationDTO struct {
	FundedHours    int    `json:"funded_hours"`
	AllocatedHours int    `json:"allocated_hours"`
	UtilizationPct string `json:"utilization_pct"`
}

// RoleRollupDTO is utilization grouped by role.
type RoleRollupDTO struct {
	RoleID         string `json:"role_id"`
	Assignments    int    `json:"assignments"`
	FundedHours    int    `json:"funded_hours"`
	AllocatedHours int    `json:"allocated_hours"`
	UtilizationPct string `json:"utilization_pct"`
}

// TimelineMonthDTO is one month of an employee's history.
type TimelineMonthDTO struct {
	Month      string            `json:"month"`
	TotalHours int               `json:"total_hours"`
	FTE        string            `json:"fte"`
	Projects   []ProjectHoursDTO `json:"projects"`
}

// DashboardDTO bundles the portfolio landing-page views.
type DashboardDTO struct {
	Month          string                   `json:"month"`
	TotalEmployees int                      `json:"total_employees"`
	Utilization    UtilizationDTO           `json:"utilization"`
	ByRole         []RoleRollupDTO          `json:"by_role"`
	OverAllocated  []OverAllocationEntryDTO `json:"over_allocated"`
	Bench          []BenchEntryDTO          `json:"bench"`
}

// BurnDownPointDTO is one month of planned-vs-actual project burn.
type BurnDownPointDTO struct {
	Month            string `json:"month"`
	CapacityHours    int    `json:"capacity_hours"`
	PlannedBurn      string `json:"planned_burn"`
	ActualBurn       int    `json:"actual_burn"`
	PlannedRemaining string `json:"planned_remaining"`
	ActualRemaining  string `json:"actual_remaining"`
}

// ConflictReportDTO is a cached conflict-scan result.
type ConflictReportDTO struct {
	ScannedAt     string                   `json:"scanned_at"`
	FromMonth     string                   `json:"from_month"`
	ToMonth       string                   `json:"to_month"`
	OverAllocated []OverAllocationEntryDTO `json:"over_allocated"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toProjectDTO(p engine.Project) ProjectDTO {
	return ProjectDTO{
		ID:        string(p.ID),
		Code:      p.Code,
		Name:      p.Name,
		Client:    p.Client,
		StartDate: p.StartDate.Format("2006-01-02"),
		Sprints:   p.Sprints,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(e.ID),
		Email:     e.Email,
		Name:      e.Name,
		Active:    e.Active,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toAssignmentDTO(a engine.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:          string(a.ID),
		ProjectID:   string(a.ProjectID),
		EmployeeID:  string(a.EmployeeID),
		RoleID:      a.RoleID,
		LCATID:      a.LCATID,
		FundedHours: a.FundedHours,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}

func toAllocationDTO(a engine.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:           a.ID,
		AssignmentID: string(a.AssignmentID),
		Month:        a.Month.String(),
		Hours:        a.Hours,
		Version:      a.Version,
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

func toOverrideDTO(o engine.MonthlyOverride) OverrideDTO {
	return OverrideDTO{
		ID:        o.ID,
		ProjectID: string(o.ProjectID),
		Month:     o.Month.String(),
		Hours:     o.Hours,
	}
}

func toBudgetDTO(b engine.BudgetSummary) BudgetDTO {
	return BudgetDTO{
		AssignmentID:   string(b.AssignmentID),
		FundedHours:    b.FundedHours,
		AllocatedHours: b.AllocatedHours,
		RemainingHours: b.RemainingHours,
		OverBudget:     b.OverBudget,
	}
}

func toProjectHoursDTOs(projects []engine.ProjectHours) []ProjectHoursDTO {
	dtos := make([]ProjectHoursDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ProjectHoursDTO{
			ProjectID:      string(p.ProjectID),
			ProjectName:    p.ProjectName,
			Hours:          p.Hours,
			EffectiveHours: p.EffectiveHours,
			FTE:            p.FTE.String(),
		}
	}
	return dtos
}

func toCapacityDTO(c engine.EmployeeMonthCapacity) CapacityDTO {
	return CapacityDTO{
		EmployeeID:    string(c.EmployeeID),
		Month:         c.Month.String(),
		TotalHours:    c.TotalHours,
		FTE:           c.FTE.String(),
		OverAllocated: c.OverAllocated(),
		Projects:      toProjectHoursDTOs(c.Projects),
	}
}

func toOverAllocationDTOs(entries []engine.OverAllocationEntry) []OverAllocationEntryDTO {
	dtos := make([]OverAllocationEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = OverAllocationEntryDTO{
			EmployeeID: string(e.EmployeeID),
			Name:       e.Name,
			Month:      e.Month.String(),
			TotalHours: e.TotalHours,
			FTE:        e.FTE.String(),
			Projects:   toProjectHoursDTOs(e.Projects),
		}
	}
	return dtos
}

func toBenchDTOs(entries []engine.BenchEntry) []BenchEntryDTO {
	dtos := make([]BenchEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = BenchEntryDTO{
			EmployeeID:     string(e.EmployeeID),
			Name:           e.Name,
			TotalHours:     e.TotalHours,
			FTE:            e.FTE.String(),
			AvailableHours: e.AvailableHours,
			Projects:       toProjectHoursDTOs(e.Projects),
		}
	}
	return dtos
}

func toUtilizationDTO(u engine.UtilizationSummary) UtilizationDTO {
	return UtilizationDTO{
		FundedHours:    u.FundedHours,
		AllocatedHours: u.AllocatedHours,
		UtilizationPct: u.UtilizationPct.String(),
	}
}

func toRoleRollupDTOs(rollups []engine.RoleRollup) []RoleRollupDTO {
	dtos := make([]RoleRollupDTO, len(rollups))
	for i, r := range rollups {
		dtos[i] = RoleRollupDTO{
			RoleID:         r.RoleID,
			Assignments:    r.Assignments,
			FundedHours:    r.FundedHours,
			AllocatedHours: r.AllocatedHours,
			UtilizationPct: r.UtilizationPct.String(),
		}
	}
	return dtos
}

func toTimelineDTOs(timeline []engine.TimelineMonth) []TimelineMonthDTO {
	dtos := make([]TimelineMonthDTO, len(timeline))
	for i, m := range timeline {
		dtos[i] = TimelineMonthDTO{
			Month:      m.Month.String(),
			TotalHours: m.TotalHours,
			FTE:        m.FTE.String(),
			Projects:   toProjectHoursDTOs(m.Projects),
		}
	}
	return dtos
}

func toDashboardDTO(d engine.Dashboard) DashboardDTO {
	return DashboardDTO{
		Month:          d.Month.String(),
		TotalEmployees: d.TotalEmployees,
		Utilization:    toUtilizationDTO(d.Utilization),
		ByRole:         toRoleRollupDTOs(d.ByRole),
		OverAllocated:  toOverAllocationDTOs(d.OverAllocated),
		Bench:          toBenchDTOs(d.Bench),
	}
}

func toBurnDownDTOs(points []engine.BurnDownPoint) []BurnDownPointDTO {
	dtos := make([]BurnDownPointDTO, len(points))
	for i, p := range points {
		dtos[i] = BurnDownPointDTO{
			Month:            p.Month.String(),
			CapacityHours:    p.CapacityHours,
			PlannedBurn:      p.PlannedBurn.String(),
			ActualBurn:       p.ActualBurn,
			PlannedRemaining: p.PlannedRemaining.String(),
			ActualRemaining:  p.ActualRemaining.String(),
		}
	}
	return dtos
}
