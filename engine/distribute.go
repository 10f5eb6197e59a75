/*
distribute.go - Even-distribution planner

PURPOSE:
  Auto-fills a month range with hours: base = floor(total/n) per month,
  plus one extra hour to the first (total - base*n) months, left to right.
  The sum across the range is exactly the requested total - whole-hour
  rounding never loses an hour.

SEMANTICS:
  - Full replace: every month in range is overwritten (a zero share clears
    the cell). Callers who want to preserve prior entries read them first.
  - Months outside the range are never touched.
  - Idempotent: the same arguments twice produce the same final rows.
  - Atomic: the whole range is one storage transaction; a mid-range
    failure rolls back every write.
*/
package engine

import "context"

// Distribute spreads totalHours evenly across [from, to] inclusive for one
// assignment, overwriting existing cells. A nil totalHours means "spread
// whatever budget remains" (clamped at zero).
//
// Returns the stored allocations in month order; cleared months (zero
// share) have no row and are omitted.
func (l *Ledger) Distribute(ctx context.Context, assignmentID AssignmentID, from, to YearMonth, totalHours *int) ([]Allocation, error) {
	if !from.Valid() {
		return nil, validationf("start_month", "must be within [1, 12], got %d", int(from.Month))
	}
	if !to.Valid() {
		return nil, validationf("end_month", "must be within [1, 12], got %d", int(to.Month))
	}
	if to.Before(from) {
		return nil, validationf("month_range", "end %s is before start %s", to, from)
	}

	assignment, err := l.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, notFound("assignment", assignmentID)
	}
	if err := l.checkProjectOpen(ctx, assignment.ProjectID); err != nil {
		return nil, err
	}

	total := 0
	if totalHours != nil {
		total = *totalHours
	} else {
		budget, err := l.AssignmentBudget(ctx, assignmentID)
		if err != nil {
			return nil, err
		}
		if budget.RemainingHours > 0 {
			total = budget.RemainingHours
		}
	}
	if total < 0 {
		return nil, validationf("total_hours", "must be >= 0, got %d", total)
	}

	months := IterMonths(from, to)
	base := total / len(months)
	remainder := total - base*len(months)

	var written []Allocation
	err = l.store.WithTx(ctx, func(tx Store) error {
		written = written[:0]
		for i, ym := range months {
			hours := base
			if i < remainder {
				hours++
			}

			existing, err := tx.GetAllocation(ctx, assignmentID, ym)
			if err != nil {
				return err
			}
			if hours == 0 {
				if existing != nil {
					if err := tx.DeleteAllocation(ctx, assignmentID, ym); err != nil {
						return err
					}
				}
				continue
			}

			a := Allocation{
				AssignmentID: assignmentID,
				Month:        ym,
				Hours:        hours,
				Version:      1,
				UpdatedAt:    l.now().UTC(),
			}
			if existing != nil {
				a.ID = existing.ID
				a.Version = existing.Version + 1
			} else {
				a.ID = newAllocationID()
			}
			if err := tx.PutAllocation(ctx, a); err != nil {
				return err
			}
			written = append(written, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}
