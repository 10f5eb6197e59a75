/*
portfolio.go - Roster-level rollups for dashboards

PURPOSE:
  Read-only aggregation over the capacity calculator's output plus the
  assignment ledger's budgets:
    - over-allocated employees (summed FTE > 100% in any month of a range)
    - bench employees (FTE <= 25% in the reference month)
    - portfolio utilization (sum allocated / sum funded, a budget-consumption
      ratio distinct from per-employee FTE)
    - rollup by role, employee timelines, project burn-down

  No write operations; the only failure beyond storage errors is
  NotFoundError when a roster id does not exist.
*/
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// BenchThreshold is the low-utilization cutoff: at or below this summed FTE
// in the reference month an employee counts as on the bench.
var BenchThreshold = decimal.New(25, -2) // 0.25

var hundred = decimal.NewFromInt(100)

// Portfolio aggregates capacity and budget views across a roster.
type Portfolio struct {
	store    Store
	capacity *Capacity
	calendar Calendar
}

func NewPortfolio(store Store, capacity *Capacity, calendar Calendar) *Portfolio {
	return &Portfolio{store: store, capacity: capacity, calendar: calendar}
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// OverAllocationEntry flags one employee whose month FTE exceeded 100%.
// Month is the peak month in the queried range; Projects is the per-project
// hour breakdown for that month.
type OverAllocationEntry struct {
	EmployeeID EmployeeID
	Name       string
	Month      YearMonth
	TotalHours int
	FTE        decimal.Decimal
	Projects   []ProjectHours
}

// BenchEntry flags one employee with spare capacity in the reference month.
// AvailableHours is relative to the calendar baseline for that month.
type BenchEntry struct {
	EmployeeID     EmployeeID
	Name           string
	TotalHours     int
	FTE            decimal.Decimal
	AvailableHours int
	Projects       []ProjectHours
}

// UtilizationSummary is the budget-consumption ratio across a set of
// assignments: total allocated hours over total funded hours.
type UtilizationSummary struct {
	FundedHours    int
	AllocatedHours int
	UtilizationPct decimal.Decimal
}

// RoleRollup is utilization grouped by role id.
type RoleRollup struct {
	RoleID         string
	Assignments    int
	FundedHours    int
	AllocatedHours int
	UtilizationPct decimal.Decimal
}

// TimelineMonth is one month of an employee's cross-project history.
type TimelineMonth struct {
	Month      YearMonth
	TotalHours int
	FTE        decimal.Decimal
	Projects   []ProjectHours
}

// Dashboard bundles the portfolio views a PM's landing page needs.
type Dashboard struct {
	Month          YearMonth
	TotalEmployees int
	Utilization    UtilizationSummary
	ByRole         []RoleRollup
	OverAllocated  []OverAllocationEntry
	Bench          []BenchEntry
}

// BurnDownPoint is one month of a project's planned-vs-actual burn.
type BurnDownPoint struct {
	Month            YearMonth
	CapacityHours    int
	PlannedBurn      decimal.Decimal
	ActualBurn       int
	PlannedRemaining decimal.Decimal
	ActualRemaining  decimal.Decimal
}

// =============================================================================
// OVER-ALLOCATION
// =============================================================================

// OverAllocated scans every month in [from, to] for each roster employee and
// returns those whose summed FTE exceeds 1.0 in any month, with the
// breakdown of their peak month, sorted by FTE descending.
func (p *Portfolio) OverAllocated(ctx context.Context, roster []EmployeeID, from, to YearMonth) ([]OverAllocationEntry, error) {
	if to.Before(from) {
		return nil, validationf("month_range", "end %s is before start %s", to, from)
	}

	var entries []OverAllocationEntry
	for _, id := range roster {
		emp, err := p.requireEmployee(ctx, id)
		if err != nil {
			return nil, err
		}

		var peak *EmployeeMonthCapacity
		for _, ym := range IterMonths(from, to) {
			m, err := p.capacity.EmployeeMonth(ctx, id, ym)
			if err != nil {
				return nil, err
			}
			if !m.OverAllocated() {
				continue
			}
			if peak == nil || m.FTE.GreaterThan(peak.FTE) {
				peak = m
			}
		}
		if peak == nil {
			continue
		}
		entries = append(entries, OverAllocationEntry{
			EmployeeID: id,
			Name:       emp.Name,
			Month:      peak.Month,
			TotalHours: peak.TotalHours,
			FTE:        peak.FTE,
			Projects:   peak.Projects,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FTE.GreaterThan(entries[j].FTE)
	})
	return entries, nil
}

// =============================================================================
// BENCH
// =============================================================================

// Bench returns roster employees at or below the bench threshold in the
// reference month, sorted by available hours descending.
func (p *Portfolio) Bench(ctx context.Context, roster []EmployeeID, ref YearMonth) ([]BenchEntry, error) {
	baseline := p.calendar.BaselineHours(ref)

	var entries []BenchEntry
	for _, id := range roster {
		emp, err := p.requireEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		m, err := p.capacity.EmployeeMonth(ctx, id, ref)
		if err != nil {
			return nil, err
		}
		if m.FTE.GreaterThan(BenchThreshold) {
			continue
		}
		available := baseline - m.TotalHours
		if available < 0 {
			available = 0
		}
		entries = append(entries, BenchEntry{
			EmployeeID:     id,
			Name:           emp.Name,
			TotalHours:     m.TotalHours,
			FTE:            m.FTE,
			AvailableHours: available,
			Projects:       m.Projects,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AvailableHours > entries[j].AvailableHours
	})
	return entries, nil
}

// =============================================================================
// UTILIZATION
// =============================================================================

// Utilization sums allocated vs funded hours across the roster's assignments
// on Active projects.
func (p *Portfolio) Utilization(ctx context.Context, roster []EmployeeID) (*UtilizationSummary, error) {
	summary := &UtilizationSummary{UtilizationPct: decimal.Zero}
	for _, id := range roster {
		if _, err := p.requireEmployee(ctx, id); err != nil {
			return nil, err
		}
		assignments, err := p.activeAssignments(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			summary.FundedHours += a.FundedHours
			allocated, err := p.allocatedTotal(ctx, a.ID)
			if err != nil {
				return nil, err
			}
			summary.AllocatedHours += allocated
		}
	}
	summary.UtilizationPct = pct(summary.AllocatedHours, summary.FundedHours)
	return summary, nil
}

// RollupByRole groups funded/allocated totals by role id across the
// roster's assignments on Active projects.
func (p *Portfolio) RollupByRole(ctx context.Context, roster []EmployeeID) ([]RoleRollup, error) {
	byRole := make(map[string]*RoleRollup)
	for _, id := range roster {
		if _, err := p.requireEmployee(ctx, id); err != nil {
			return nil, err
		}
		assignments, err := p.activeAssignments(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			r := byRole[a.RoleID]
			if r == nil {
				r = &RoleRollup{RoleID: a.RoleID}
				byRole[a.RoleID] = r
			}
			r.Assignments++
			r.FundedHours += a.FundedHours
			allocated, err := p.allocatedTotal(ctx, a.ID)
			if err != nil {
				return nil, err
			}
			r.AllocatedHours += allocated
		}
	}

	rollups := make([]RoleRollup, 0, len(byRole))
	for _, r := range byRole {
		r.UtilizationPct = pct(r.AllocatedHours, r.FundedHours)
		rollups = append(rollups, *r)
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].RoleID < rollups[j].RoleID })
	return rollups, nil
}

// Dashboard builds the combined portfolio view for one reference month.
func (p *Portfolio) Dashboard(ctx context.Context, roster []EmployeeID, ref YearMonth) (*Dashboard, error) {
	over, err := p.OverAllocated(ctx, roster, ref, ref)
	if err != nil {
		return nil, err
	}
	bench, err := p.Bench(ctx, roster, ref)
	if err != nil {
		return nil, err
	}
	util, err := p.Utilization(ctx, roster)
	if err != nil {
		return nil, err
	}
	byRole, err := p.RollupByRole(ctx, roster)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Month:          ref,
		TotalEmployees: len(roster),
		Utilization:    *util,
		ByRole:         byRole,
		OverAllocated:  over,
		Bench:          bench,
	}, nil
}

// =============================================================================
// TIMELINE
// =============================================================================

// EmployeeTimeline returns the per-month cross-project breakdown for one
// employee over [from, to]. Months with no entries appear with zero hours so
// the grid has a cell for every month.
func (p *Portfolio) EmployeeTimeline(ctx context.Context, employeeID EmployeeID, from, to YearMonth) ([]TimelineMonth, error) {
	if to.Before(from) {
		return nil, validationf("month_range", "end %s is before start %s", to, from)
	}
	if _, err := p.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	var timeline []TimelineMonth
	for _, ym := range IterMonths(from, to) {
		m, err := p.capacity.EmployeeMonth(ctx, employeeID, ym)
		if err != nil {
			return nil, err
		}
		timeline = append(timeline, TimelineMonth{
			Month:      ym,
			TotalHours: m.TotalHours,
			FTE:        m.FTE,
			Projects:   m.Projects,
		})
	}
	return timeline, nil
}

// =============================================================================
// BURN-DOWN
// =============================================================================

// ProjectBurnDown builds planned-vs-actual remaining hours per month for one
// project. The planned burn distributes the project's total funded hours
// proportionally to each month's effective capacity (overrides respected),
// rounded to 2 decimals with the drift folded into the last month so the
// planned burns sum exactly to the funded total.
func (p *Portfolio) ProjectBurnDown(ctx context.Context, projectID ProjectID, from, to YearMonth) ([]BurnDownPoint, error) {
	if to.Before(from) {
		return nil, validationf("month_range", "end %s is before start %s", to, from)
	}
	project, err := p.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	assignments, err := p.store.ListAssignmentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	totalFunded := 0
	actualByMonth := make(map[YearMonth]int)
	for _, a := range assignments {
		totalFunded += a.FundedHours
		allocations, err := p.store.ListAllocationsByAssignment(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, alloc := range allocations {
			actualByMonth[alloc.Month] += alloc.Hours
		}
	}

	months := IterMonths(from, to)
	capacities := make([]int, len(months))
	totalCapacity := 0
	for i, ym := range months {
		c, err := p.capacity.EffectiveHours(ctx, projectID, ym)
		if err != nil {
			return nil, err
		}
		capacities[i] = c
		totalCapacity += c
	}

	planned := plannedBurns(totalFunded, capacities, totalCapacity)

	total := decimal.NewFromInt(int64(totalFunded))
	plannedRemaining := total
	actualRemaining := total
	points := make([]BurnDownPoint, 0, len(months))
	for i, ym := range months {
		actual := actualByMonth[ym]
		plannedRemaining = decimal.Max(plannedRemaining.Sub(planned[i]), decimal.Zero)
		actualRemaining = decimal.Max(actualRemaining.Sub(decimal.NewFromInt(int64(actual))), decimal.Zero)
		points = append(points, BurnDownPoint{
			Month:            ym,
			CapacityHours:    capacities[i],
			PlannedBurn:      planned[i],
			ActualBurn:       actual,
			PlannedRemaining: plannedRemaining,
			ActualRemaining:  actualRemaining,
		})
	}
	return points, nil
}

// plannedBurns splits total proportionally to capacities, 2dp, drift on the
// last element so the parts sum exactly to total.
func plannedBurns(total int, capacities []int, totalCapacity int) []decimal.Decimal {
	n := len(capacities)
	burns := make([]decimal.Decimal, n)
	if n == 0 {
		return burns
	}
	if totalCapacity <= 0 {
		// Degenerate capacities: fall back to an even split.
		totalCapacity = n
		capacities = make([]int, n)
		for i := range capacities {
			capacities[i] = 1
		}
	}

	totalDec := decimal.NewFromInt(int64(total))
	scale := totalDec.Div(decimal.NewFromInt(int64(totalCapacity)))
	sum := decimal.Zero
	for i, c := range capacities {
		burns[i] = scale.Mul(decimal.NewFromInt(int64(c))).Round(2)
		sum = sum.Add(burns[i])
	}
	burns[n-1] = burns[n-1].Add(totalDec.Sub(sum)).Round(2)
	return burns
}

// =============================================================================
// HELPERS
// =============================================================================

func (p *Portfolio) requireEmployee(ctx context.Context, id EmployeeID) (*Employee, error) {
	emp, err := p.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, notFound("employee", id)
	}
	return emp, nil
}

func (p *Portfolio) activeAssignments(ctx context.Context, id EmployeeID) ([]Assignment, error) {
	assignments, err := p.store.ListAssignmentsByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	var active []Assignment
	for _, a := range assignments {
		project, err := p.store.GetProject(ctx, a.ProjectID)
		if err != nil {
			return nil, err
		}
		if project != nil && project.Status == StatusActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (p *Portfolio) allocatedTotal(ctx context.Context, id AssignmentID) (int, error) {
	allocations, err := p.store.ListAllocationsByAssignment(ctx, id)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, a := range allocations {
		total += a.Hours
	}
	return total, nil
}

func pct(numerator, denominator int) decimal.Decimal {
	if denominator <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(numerator)).
		Div(decimal.NewFromInt(int64(denominator))).
		Mul(hundred).
		Round(2)
}
