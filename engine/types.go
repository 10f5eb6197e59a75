/*
Package engine provides the core staffing allocation and capacity engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking how
  employees' working time is committed across concurrent projects: monthly
  hour allocations against funded budgets, FTE percentage derivation,
  cross-project over-allocation detection, and even-distribution planning.

KEY CONCEPTS IN THIS FILE (types.go):
  - Project/Employee: reference records owned by external CRUD
  - Assignment: one employee staffed on one project with a funded-hours ceiling
  - Allocation: a single (assignment, year, month) -> hours fact
  - MonthlyOverride: per (project, year, month) capacity override

DESIGN PRINCIPLES:
  1. Derived values are never stored: FTE is always recomputed from hours
     plus the current effective-hours lookup at read time.
  2. Precision: percentages use decimal.Decimal, never float64 sums.
  3. Sparse storage: a zero-hours cell is "no entry", not a zero row.
  4. One writer path: every mutation goes through the Ledger, every
     percentage through the Capacity calculator.

SEE ALSO:
  - ledger.go: write path and invariants
  - capacity.go: FTE derivation
  - distribute.go: even-distribution planner
  - portfolio.go: roster-level rollups
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	ProjectID    string
	EmployeeID   string
	AssignmentID string
)

// =============================================================================
// PROJECT - Reference record (owned by external CRUD)
// =============================================================================

type ProjectStatus string

const (
	StatusPlanning ProjectStatus = "Planning"
	StatusActive   ProjectStatus = "Active"
	StatusOnHold   ProjectStatus = "On Hold"
	StatusClosed   ProjectStatus = "Closed"
)

// ValidStatus reports whether s is one of the known project statuses.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusClosed:
		return true
	}
	return false
}

// Project is read-only from the engine's perspective, except that status
// gates whether allocation edits are accepted (Closed projects reject writes).
type Project struct {
	ID        ProjectID
	Code      string // unique
	Name      string
	Client    string
	StartDate time.Time
	Sprints   int
	Status    ProjectStatus
	CreatedAt time.Time
}

// =============================================================================
// EMPLOYEE - Reference record (owned by external CRUD)
// =============================================================================

type Employee struct {
	ID        EmployeeID
	Email     string // unique
	Name      string
	Active    bool
	CreatedAt time.Time
}

// =============================================================================
// ASSIGNMENT - One employee on one project, with a lifetime budget
// =============================================================================

// Assignment binds an employee to a project with a role, a labor category,
// and a funded-hours ceiling (lifetime budget, not monthly).
//
// INVARIANT: unique per (ProjectID, EmployeeID). Re-staffing requires
// delete + recreate; deletion cascades to all the assignment's allocations.
type Assignment struct {
	ID          AssignmentID
	ProjectID   ProjectID
	EmployeeID  EmployeeID
	RoleID      string // opaque reference into external role taxonomy
	LCATID      string // opaque reference into external labor-category taxonomy
	FundedHours int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// ALLOCATION - The mutable cell of the allocation grid
// =============================================================================

// Allocation records committed hours for one assignment in one month.
//
// INVARIANTS:
//   - unique per (AssignmentID, Month); upsert updates, never duplicates
//   - Hours > 0: zero-hour cells are deleted, not stored
//
// Version supports optimistic concurrency: it starts at 1 and increments on
// every update. Upserts that pass an expected version fail with a
// ConflictError on mismatch (see Ledger.UpsertAllocation).
type Allocation struct {
	ID           string
	AssignmentID AssignmentID
	Month        YearMonth
	Hours        int
	Version      int64
	UpdatedAt    time.Time
}

// =============================================================================
// MONTHLY OVERRIDE - Project-specific capacity for one month
// =============================================================================

// MonthlyOverride replaces the calendar baseline for one (project, month).
// Absence of a row means "use the calendar-derived baseline".
//
// INVARIANT: unique per (ProjectID, Month); Hours within [MinOverrideHours,
// MaxOverrideHours].
type MonthlyOverride struct {
	ID        string
	ProjectID ProjectID
	Month     YearMonth
	Hours     int
}

// =============================================================================
// DERIVED VIEWS - Computed, never persisted
// =============================================================================

// BudgetSummary is the lifetime funded-vs-allocated picture for one
// assignment. Independent of the per-month FTE check: an assignment can be
// within budget while the employee is over 100% in a single month, and
// vice versa.
type BudgetSummary struct {
	AssignmentID   AssignmentID
	FundedHours    int
	AllocatedHours int
	RemainingHours int
	OverBudget     bool
}

// ProjectHours is one project's contribution to an employee's month.
type ProjectHours struct {
	ProjectID      ProjectID
	ProjectName    string
	Hours          int
	EffectiveHours int
	FTE            decimal.Decimal
}

// EmployeeMonthCapacity is the cross-project view of one employee's month.
// FTE is the sum of per-project percentages, each scaled by its own
// project's effective hours - not a single shared denominator.
type EmployeeMonthCapacity struct {
	EmployeeID EmployeeID
	Month      YearMonth
	TotalHours int
	FTE        decimal.Decimal
	Projects   []ProjectHours
}

// OverAllocated reports whether the summed FTE exceeds 1.0. Exactly 100%
// is not over-allocated.
func (c EmployeeMonthCapacity) OverAllocated() bool {
	return c.FTE.GreaterThan(one)
}
