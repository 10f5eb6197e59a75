/*
ledger.go - The write path: assignments, allocation cells, overrides

PURPOSE:
  Every mutation of the staffing ledger goes through here. The Ledger
  validates input at the boundary (the capacity calculator never sees a
  negative hour or a month 13), enforces the uniqueness invariants, and
  owns the budget check.

INVARIANTS ENFORCED:
  - (project, employee) unique per assignment; duplicates -> ConflictError
  - (assignment, year, month) unique per allocation; upsert updates
  - hours >= 0; month in [1,12]; override hours in [40,320]
  - zero-hour upserts delete the cell (sparse storage - "no entry", not
    a zero row)
  - allocation writes against Closed projects are rejected

CONCURRENCY:
  Allocation cells carry an optimistic version. Pass the version you read
  to UpsertAllocation and a concurrent edit surfaces as ConflictError;
  pass VersionAny for deliberate last-write-wins (bulk grid edits, seeds).

SEE ALSO:
  - distribute.go: multi-month planner built on this write path
  - capacity.go: the read side
*/
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VersionAny skips the optimistic version check on an allocation upsert.
const VersionAny int64 = -1

func newAllocationID() string { return uuid.NewString() }

// Ledger is the single write path into the staffing store.
type Ledger struct {
	store    TxStore
	calendar Calendar
	now      func() time.Time
}

func NewLedger(store TxStore, calendar Calendar) *Ledger {
	return &Ledger{store: store, calendar: calendar, now: time.Now}
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignment staffs an employee on a project.
// Fails with ConflictError when the (project, employee) pair already has an
// assignment; re-staffing requires delete + recreate.
func (l *Ledger) CreateAssignment(ctx context.Context, projectID ProjectID, employeeID EmployeeID, roleID, lcatID string, fundedHours int) (*Assignment, error) {
	if fundedHours < 0 {
		return nil, validationf("funded_hours", "must be >= 0, got %d", fundedHours)
	}

	project, err := l.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}
	employee, err := l.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, notFound("employee", employeeID)
	}

	existing, err := l.store.FindAssignment(ctx, projectID, employeeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflictf("employee %s is already assigned to project %s", employeeID, projectID)
	}

	now := l.now().UTC()
	a := Assignment{
		ID:          AssignmentID(uuid.NewString()),
		ProjectID:   projectID,
		EmployeeID:  employeeID,
		RoleID:      roleID,
		LCATID:      lcatID,
		FundedHours: fundedHours,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.store.InsertAssignment(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAssignment changes role, labor category, or funded hours.
// Project and employee are immutable for the life of the assignment.
func (l *Ledger) UpdateAssignment(ctx context.Context, id AssignmentID, roleID, lcatID string, fundedHours int) (*Assignment, error) {
	if fundedHours < 0 {
		return nil, validationf("funded_hours", "must be >= 0, got %d", fundedHours)
	}
	a, err := l.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("assignment", id)
	}

	a.RoleID = roleID
	a.LCATID = lcatID
	a.FundedHours = fundedHours
	a.UpdatedAt = l.now().UTC()
	if err := l.store.UpdateAssignment(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAssignment removes the assignment and every allocation under it.
// Irreversible; confirmation is a UI concern.
func (l *Ledger) DeleteAssignment(ctx context.Context, id AssignmentID) error {
	a, err := l.store.GetAssignment(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return notFound("assignment", id)
	}
	return l.store.DeleteAssignment(ctx, id)
}

// =============================================================================
// ALLOCATION CELLS
// =============================================================================

// UpsertAllocation writes one cell of the allocation grid.
//
// Zero hours deletes the cell rather than storing a zero row; the returned
// allocation is nil in that case. expectedVersion is checked against the
// current cell (0 for a cell with no entry) unless it is VersionAny.
func (l *Ledger) UpsertAllocation(ctx context.Context, assignmentID AssignmentID, ym YearMonth, hours int, expectedVersion int64) (*Allocation, error) {
	if !ym.Valid() {
		return nil, validationf("month", "must be within [1, 12], got %d", int(ym.Month))
	}
	if hours < 0 {
		return nil, validationf("hours", "must be >= 0, got %d", hours)
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

	existing, err := l.store.GetAllocation(ctx, assignmentID, ym)
	if err != nil {
		return nil, err
	}
	if expectedVersion != VersionAny {
		current := int64(0)
		if existing != nil {
			current = existing.Version
		}
		if expectedVersion != current {
			return nil, conflictf("allocation %s/%s changed: expected version %d, have %d",
				assignmentID, ym, expectedVersion, current)
		}
	}

	if hours == 0 {
		if existing == nil {
			return nil, nil
		}
		return nil, l.store.DeleteAllocation(ctx, assignmentID, ym)
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
	if err := l.store.PutAllocation(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignmentBudget reports the lifetime funded-vs-allocated totals for one
// assignment. Allocated sums every month ever entered, not just a range.
func (l *Ledger) AssignmentBudget(ctx context.Context, id AssignmentID) (*BudgetSummary, error) {
	a, err := l.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("assignment", id)
	}

	allocations, err := l.store.ListAllocationsByAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	allocated := 0
	for _, alloc := range allocations {
		allocated += alloc.Hours
	}

	return &BudgetSummary{
		AssignmentID:   id,
		FundedHours:    a.FundedHours,
		AllocatedHours: allocated,
		RemainingHours: a.FundedHours - allocated,
		OverBudget:     allocated > a.FundedHours,
	}, nil
}

// =============================================================================
// MONTHLY OVERRIDES
// =============================================================================

// SetOverride replaces the baseline capacity for (project, month).
// Upserts the unique row; the next FTE read for that project/month reflects
// the new denominator.
func (l *Ledger) SetOverride(ctx context.Context, projectID ProjectID, ym YearMonth, hours int) (*MonthlyOverride, error) {
	if !ym.Valid() {
		return nil, validationf("month", "must be within [1, 12], got %d", int(ym.Month))
	}
	if hours < MinOverrideHours || hours > MaxOverrideHours {
		return nil, validationf("hours", "override must be within [%d, %d], got %d",
			MinOverrideHours, MaxOverrideHours, hours)
	}

	project, err := l.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	o := MonthlyOverride{
		ProjectID: projectID,
		Month:     ym,
		Hours:     hours,
	}
	existing, err := l.store.GetOverride(ctx, projectID, ym)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		o.ID = existing.ID
	} else {
		o.ID = uuid.NewString()
	}
	if err := l.store.PutOverride(ctx, o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ClearOverride removes the override; idempotent. The month falls back to
// the calendar baseline.
func (l *Ledger) ClearOverride(ctx context.Context, projectID ProjectID, ym YearMonth) error {
	return l.store.DeleteOverride(ctx, projectID, ym)
}

// checkProjectOpen rejects allocation edits on Closed projects.
func (l *Ledger) checkProjectOpen(ctx context.Context, projectID ProjectID) error {
	p, err := l.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return notFound("project", projectID)
	}
	if p.Status == StatusClosed {
		return validationf("project_status", "project %s is Closed; allocations are read-only", projectID)
	}
	return nil
}
