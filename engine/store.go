/*
store.go - Persistence interfaces for the allocation ledger

PURPOSE:
  Defines the boundary between the domain logic and the database. The
  assignments/allocations/overrides tables are the source of truth; the
  project and employee reference tables are owned by external CRUD but
  kept alongside so the engine can enforce referential checks.

KEY INTERFACES:
  Store:   All reads and keyed writes across the five tables.
  TxStore: Store plus WithTx, the unit-of-work used by the distribution
           planner so a multi-month write is all-or-nothing.

UNIQUENESS (also enforced at the storage layer):
  assignments:       (project_id, employee_id)
  allocations:       (assignment_id, year, month)
  monthly_overrides: (project_id, year, month)

IMPLEMENTATIONS:
  - store/sqlite: production
  - engine/store: in-memory for tests/dev
*/
package engine

import "context"

// =============================================================================
// REFERENCE TABLES - Projects and employees
// =============================================================================

type ProjectStore interface {
	// SaveProject upserts a project record by ID.
	SaveProject(ctx context.Context, p Project) error

	// GetProject returns nil (no error) when the project does not exist.
	GetProject(ctx context.Context, id ProjectID) (*Project, error)

	ListProjects(ctx context.Context) ([]Project, error)
}

type EmployeeStore interface {
	// SaveEmployee upserts an employee record by ID.
	SaveEmployee(ctx context.Context, e Employee) error

	// GetEmployee returns nil (no error) when the employee does not exist.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	ListEmployees(ctx context.Context) ([]Employee, error)
}

// =============================================================================
// ASSIGNMENT LEDGER
// =============================================================================

type AssignmentStore interface {
	// InsertAssignment fails with ErrConflict when (project, employee)
	// already has an assignment.
	InsertAssignment(ctx context.Context, a Assignment) error

	// UpdateAssignment rewrites role/LCAT/funded hours for an existing row.
	UpdateAssignment(ctx context.Context, a Assignment) error

	// DeleteAssignment removes the assignment and cascades to its
	// allocations. Returns ErrNotFound when the row does not exist.
	DeleteAssignment(ctx context.Context, id AssignmentID) error

	// GetAssignment returns nil (no error) when missing.
	GetAssignment(ctx context.Context, id AssignmentID) (*Assignment, error)

	// FindAssignment looks up by the (project, employee) unique pair.
	FindAssignment(ctx context.Context, projectID ProjectID, employeeID EmployeeID) (*Assignment, error)

	ListAssignmentsByEmployee(ctx context.Context, employeeID EmployeeID) ([]Assignment, error)
	ListAssignmentsByProject(ctx context.Context, projectID ProjectID) ([]Assignment, error)
}

// =============================================================================
// ALLOCATION LEDGER - The mutable grid cells
// =============================================================================

type AllocationStore interface {
	// PutAllocation upserts the cell keyed by (assignment, month).
	PutAllocation(ctx context.Context, a Allocation) error

	// DeleteAllocation removes the cell; idempotent.
	DeleteAllocation(ctx context.Context, assignmentID AssignmentID, ym YearMonth) error

	// GetAllocation returns nil (no error) when the cell has no entry.
	GetAllocation(ctx context.Context, assignmentID AssignmentID, ym YearMonth) (*Allocation, error)

	ListAllocationsByAssignment(ctx context.Context, assignmentID AssignmentID) ([]Allocation, error)

	// ListAllocationsByEmployee returns every allocation in [from, to]
	// across all the employee's assignments, any project.
	ListAllocationsByEmployee(ctx context.Context, employeeID EmployeeID, from, to YearMonth) ([]Allocation, error)
}

// =============================================================================
// OVERRIDE STORE
// =============================================================================

type OverrideStore interface {
	// PutOverride upserts the row keyed by (project, month).
	PutOverride(ctx context.Context, o MonthlyOverride) error

	// DeleteOverride is idempotent; afterwards the month falls back to
	// the calendar baseline.
	DeleteOverride(ctx context.Context, projectID ProjectID, ym YearMonth) error

	// GetOverride returns nil (no error) when no override is set.
	GetOverride(ctx context.Context, projectID ProjectID, ym YearMonth) (*MonthlyOverride, error)

	ListOverridesByProject(ctx context.Context, projectID ProjectID) ([]MonthlyOverride, error)
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is the full persistence surface the engine operates on.
type Store interface {
	ProjectStore
	EmployeeStore
	AssignmentStore
	AllocationStore
	OverrideStore
}

// TxStore wraps Store with transaction support.
// The distribution planner requires it: a failure partway through a month
// range must roll back every write in the range.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
