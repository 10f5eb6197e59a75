/*
capacity.go - FTE derivation (the read side of the engine)

PURPOSE:
  Converts raw hour entries into FTE percentages. This is the single place
  percentage math lives; the API layer, the portfolio aggregator, and the
  scheduled conflict scan all call through here rather than recomputing.

THE OVER-ALLOCATION RULE:
  An employee's month FTE is the sum over all their allocations of
  hours / effective_hours(allocation's own project, month). Two projects
  with different overrides each contribute their own correctly-scaled
  percentage; there is no single shared denominator. The employee is
  over-allocated when the sum exceeds 1.0 - exactly 100% is fine.

PRECISION:
  decimal.Decimal throughout. 160/160 is exactly 1, so the boundary case
  never depends on float rounding.
*/
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Capacity derives FTE views from the ledger plus the current override
// state. It holds no state of its own and never writes.
type Capacity struct {
	store    Store
	calendar Calendar
}

func NewCapacity(store Store, calendar Calendar) *Capacity {
	return &Capacity{store: store, calendar: calendar}
}

// =============================================================================
// EFFECTIVE HOURS - Override-aware month capacity
// =============================================================================

// EffectiveHours returns the override value for (project, month) if one is
// set, else the calendar baseline. Changing or clearing an override changes
// every FTE read for that project/month; nothing denormalized is stored.
func (c *Capacity) EffectiveHours(ctx context.Context, projectID ProjectID, ym YearMonth) (int, error) {
	o, err := c.store.GetOverride(ctx, projectID, ym)
	if err != nil {
		return 0, err
	}
	if o != nil {
		return o.Hours, nil
	}
	return c.calendar.BaselineHours(ym), nil
}

// =============================================================================
// CELL FTE - One allocation cell
// =============================================================================

// CellFTE computes hours / effective_hours for a single allocation.
func (c *Capacity) CellFTE(ctx context.Context, a Allocation) (decimal.Decimal, error) {
	assignment, err := c.store.GetAssignment(ctx, a.AssignmentID)
	if err != nil {
		return decimal.Zero, err
	}
	if assignment == nil {
		return decimal.Zero, notFound("assignment", a.AssignmentID)
	}
	effective, err := c.EffectiveHours(ctx, assignment.ProjectID, a.Month)
	if err != nil {
		return decimal.Zero, err
	}
	return fte(a.Hours, effective), nil
}

// =============================================================================
// EMPLOYEE MONTH - Cross-project aggregation
// =============================================================================

// EmployeeMonth builds the full cross-project view of one employee's month:
// raw hour total, summed FTE, and the per-project breakdown sorted by hours
// descending. An employee with no allocations yields FTE 0, not an error.
func (c *Capacity) EmployeeMonth(ctx context.Context, employeeID EmployeeID, ym YearMonth) (*EmployeeMonthCapacity, error) {
	allocations, err := c.store.ListAllocationsByEmployee(ctx, employeeID, ym, ym)
	if err != nil {
		return nil, err
	}

	result := &EmployeeMonthCapacity{
		EmployeeID: employeeID,
		Month:      ym,
		FTE:        decimal.Zero,
	}

	for _, a := range allocations {
		assignment, err := c.store.GetAssignment(ctx, a.AssignmentID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			continue // cell orphaned mid-read by a concurrent cascade delete
		}
		effective, err := c.EffectiveHours(ctx, assignment.ProjectID, ym)
		if err != nil {
			return nil, err
		}

		name := ""
		if p, err := c.store.GetProject(ctx, assignment.ProjectID); err != nil {
			return nil, err
		} else if p != nil {
			name = p.Name
		}

		cell := fte(a.Hours, effective)
		result.TotalHours += a.Hours
		result.FTE = result.FTE.Add(cell)
		result.Projects = append(result.Projects, ProjectHours{
			ProjectID:      assignment.ProjectID,
			ProjectName:    name,
			Hours:          a.Hours,
			EffectiveHours: effective,
			FTE:            cell,
		})
	}

	sort.Slice(result.Projects, func(i, j int) bool {
		return result.Projects[i].Hours > result.Projects[j].Hours
	})
	return result, nil
}

// EmployeeMonthHours returns the raw hour total for the month across every
// project the employee is staffed on.
func (c *Capacity) EmployeeMonthHours(ctx context.Context, employeeID EmployeeID, ym YearMonth) (int, error) {
	m, err := c.EmployeeMonth(ctx, employeeID, ym)
	if err != nil {
		return 0, err
	}
	return m.TotalHours, nil
}

// EmployeeMonthFTE returns the summed per-project FTE for the month.
func (c *Capacity) EmployeeMonthFTE(ctx context.Context, employeeID EmployeeID, ym YearMonth) (decimal.Decimal, error) {
	m, err := c.EmployeeMonth(ctx, employeeID, ym)
	if err != nil {
		return decimal.Zero, err
	}
	return m.FTE, nil
}

// fte divides hours by effective hours, guarding the degenerate denominator.
func fte(hours, effectiveHours int) decimal.Decimal {
	if effectiveHours <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(hours)).Div(decimal.NewFromInt(int64(effectiveHours)))
}
