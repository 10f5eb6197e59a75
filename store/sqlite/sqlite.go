/*
Package sqlite provides the SQLite-backed implementation of engine.TxStore.

PURPOSE:
  Persists the five logical tables of the allocation engine - projects,
  employees, assignments, allocations, monthly_overrides - with the
  uniqueness invariants enforced at the storage layer:

    assignments:       UNIQUE(project_id, employee_id)
    allocations:       UNIQUE(assignment_id, year, month)
    monthly_overrides: UNIQUE(project_id, year, month)

  The same SQL works on PostgreSQL with minor dialect changes.

CASCADES:
  Deleting an assignment removes its allocations via ON DELETE CASCADE;
  foreign keys are enabled on every connection.

TRANSACTIONS:
  WithTx runs a function against a transaction-scoped view of the store.
  The distribution planner uses this so multi-month writes are atomic.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  while a grid edit is in flight.

USAGE:
  store, err := sqlite.New("./data/staffing.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := engine.NewLedger(store, engine.FlatCalendar{})

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/staffing-engine/engine"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries run against.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements engine.TxStore on SQLite.
type Store struct {
	db *sql.DB
	queries
}

// queries carries every engine.Store method; WithTx rebinds them to a
// *sql.Tx so the same code serves both paths.
type queries struct {
	db dbtx
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; a pooled second
	// connection would see empty tables.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, queries: queries{db: db}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Reference tables (owned by external CRUD, mirrored here)
	CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		code       TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		client     TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		sprints    INTEGER NOT NULL DEFAULT 1 CHECK (sprints > 0),
		status     TEXT NOT NULL DEFAULT 'Active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- One employee on one project, at most once
	CREATE TABLE IF NOT EXISTS assignments (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		employee_id  TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		role_id      TEXT NOT NULL DEFAULT '',
		lcat_id      TEXT NOT NULL DEFAULT '',
		funded_hours INTEGER NOT NULL CHECK (funded_hours >= 0),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		UNIQUE(project_id, employee_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_employee ON assignments(employee_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_project  ON assignments(project_id);

	-- Allocation cells: sparse, zero-hour cells are never stored
	CREATE TABLE IF NOT EXISTS allocations (
		id            TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		year          INTEGER NOT NULL,
		month         INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		hours         INTEGER NOT NULL CHECK (hours > 0),
		version       INTEGER NOT NULL DEFAULT 1,
		updated_at    TEXT NOT NULL,
		UNIQUE(assignment_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_assignment ON allocations(assignment_id);
	CREATE INDEX IF NOT EXISTS idx_allocations_year_month ON allocations(year, month);

	-- Per-project monthly capacity overrides
	CREATE TABLE IF NOT EXISTS monthly_overrides (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		year       INTEGER NOT NULL,
		month      INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		hours      INTEGER NOT NULL CHECK (hours BETWEEN 40 AND 320),
		UNIQUE(project_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_project ON monthly_overrides(project_id, year, month);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction. Any error rolls back
// every write fn made.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// PROJECTS
// =============================================================================

func (q *queries) SaveProject(ctx context.Context, p engine.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO projects (id, code, name, client, start_date, sprints, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code, name = excluded.name, client = excluded.client,
			start_date = excluded.start_date, sprints = excluded.sprints,
			status = excluded.status`,
		p.ID, p.Code, p.Name, p.Client,
		p.StartDate.UTC().Format(time.RFC3339), p.Sprints, p.Status,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &engine.ConflictError{Reason: fmt.Sprintf("project code %q already exists", p.Code)}
	}
	return err
}

func (q *queries) GetProject(ctx context.Context, id engine.ProjectID) (*engine.Project, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, code, name, client, start_date, sprints, status, created_at
		FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (q *queries) ListProjects(ctx context.Context) ([]engine.Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, code, name, client, start_date, sprints, status, created_at
		FROM projects ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []engine.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (q *queries) SaveEmployee(ctx context.Context, e engine.Employee) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO employees (id, email, name, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email, name = excluded.name, active = excluded.active`,
		e.ID, e.Email, e.Name, boolInt(e.Active), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &engine.ConflictError{Reason: fmt.Sprintf("employee email %q already exists", e.Email)}
	}
	return err
}

func (q *queries) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, email, name, active, created_at FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (q *queries) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, email, name, active, created_at FROM employees ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

const assignmentCols = `id, project_id, employee_id, role_id, lcat_id, funded_hours, created_at, updated_at`

func (q *queries) InsertAssignment(ctx context.Context, a engine.Assignment) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO assignments (`+assignmentCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.EmployeeID, a.RoleID, a.LCATID, a.FundedHours,
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &engine.ConflictError{Reason: fmt.Sprintf(
			"employee %s is already assigned to project %s", a.EmployeeID, a.ProjectID)}
	}
	return err
}

func (q *queries) UpdateAssignment(ctx context.Context, a engine.Assignment) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE assignments SET role_id = ?, lcat_id = ?, funded_hours = ?, updated_at = ?
		WHERE id = ?`,
		a.RoleID, a.LCATID, a.FundedHours, a.UpdatedAt.UTC().Format(time.RFC3339), a.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "assignment", string(a.ID))
}

// DeleteAssignment removes the row; allocations go with it via cascade.
func (q *queries) DeleteAssignment(ctx context.Context, id engine.AssignmentID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "assignment", string(id))
}

func (q *queries) GetAssignment(ctx context.Context, id engine.AssignmentID) (*engine.Assignment, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	return scanAssignment(row)
}

func (q *queries) FindAssignment(ctx context.Context, projectID engine.ProjectID, employeeID engine.EmployeeID) (*engine.Assignment, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+assignmentCols+` FROM assignments
		WHERE project_id = ? AND employee_id = ?`, projectID, employeeID)
	return scanAssignment(row)
}

func (q *queries) ListAssignmentsByEmployee(ctx context.Context, employeeID engine.EmployeeID) ([]engine.Assignment, error) {
	return q.listAssignments(ctx, `
		SELECT `+assignmentCols+` FROM assignments WHERE employee_id = ? ORDER BY id`, employeeID)
}

func (q *queries) ListAssignmentsByProject(ctx context.Context, projectID engine.ProjectID) ([]engine.Assignment, error) {
	return q.listAssignments(ctx, `
		SELECT `+assignmentCols+` FROM assignments WHERE project_id = ? ORDER BY id`, projectID)
}

func (q *queries) listAssignments(ctx context.Context, query string, args ...any) ([]engine.Assignment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []engine.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

const allocationCols = `id, assignment_id, year, month, hours, version, updated_at`

func (q *queries) PutAllocation(ctx context.Context, a engine.Allocation) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO allocations (`+allocationCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(assignment_id, year, month) DO UPDATE SET
			hours = excluded.hours, version = excluded.version,
			updated_at = excluded.updated_at`,
		a.ID, a.AssignmentID, a.Month.Year, int(a.Month.Month), a.Hours, a.Version,
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (q *queries) DeleteAllocation(ctx context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM allocations WHERE assignment_id = ? AND year = ? AND month = ?`,
		assignmentID, ym.Year, int(ym.Month))
	return err
}

func (q *queries) GetAllocation(ctx context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) (*engine.Allocation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+allocationCols+` FROM allocations
		WHERE assignment_id = ? AND year = ? AND month = ?`,
		assignmentID, ym.Year, int(ym.Month))
	return scanAllocation(row)
}

func (q *queries) ListAllocationsByAssignment(ctx context.Context, assignmentID engine.AssignmentID) ([]engine.Allocation, error) {
	return q.listAllocations(ctx, `
		SELECT `+allocationCols+` FROM allocations
		WHERE assignment_id = ? ORDER BY year, month`, assignmentID)
}

func (q *queries) ListAllocationsByEmployee(ctx context.Context, employeeID engine.EmployeeID, from, to engine.YearMonth) ([]engine.Allocation, error) {
	// Range filter on the year*12+month axis, matching YearMonth.Index.
	return q.listAllocations(ctx, `
		SELECT a.id, a.assignment_id, a.year, a.month, a.hours, a.version, a.updated_at
		FROM allocations a
		JOIN assignments s ON s.id = a.assignment_id
		WHERE s.employee_id = ?
		  AND (a.year * 12 + a.month - 1) BETWEEN ? AND ?
		ORDER BY a.year, a.month, a.assignment_id`,
		employeeID, from.Index(), to.Index())
}

func (q *queries) listAllocations(ctx context.Context, query string, args ...any) ([]engine.Allocation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []engine.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, *a)
	}
	return allocations, rows.Err()
}

// =============================================================================
// MONTHLY OVERRIDES
// =============================================================================

func (q *queries) PutOverride(ctx context.Context, o engine.MonthlyOverride) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO monthly_overrides (id, project_id, year, month, hours)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, year, month) DO UPDATE SET hours = excluded.hours`,
		o.ID, o.ProjectID, o.Month.Year, int(o.Month.Month), o.Hours)
	return err
}

func (q *queries) DeleteOverride(ctx context.Context, projectID engine.ProjectID, ym engine.YearMonth) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM monthly_overrides WHERE project_id = ? AND year = ? AND month = ?`,
		projectID, ym.Year, int(ym.Month))
	return err
}

func (q *queries) GetOverride(ctx context.Context, projectID engine.ProjectID, ym engine.YearMonth) (*engine.MonthlyOverride, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, project_id, year, month, hours FROM monthly_overrides
		WHERE project_id = ? AND year = ? AND month = ?`,
		projectID, ym.Year, int(ym.Month))
	return scanOverride(row)
}

func (q *queries) ListOverridesByProject(ctx context.Context, projectID engine.ProjectID) ([]engine.MonthlyOverride, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, project_id, year, month, hours FROM monthly_overrides
		WHERE project_id = ? ORDER BY year, month`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []engine.MonthlyOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, *o)
	}
	return overrides, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*engine.Project, error) {
	var p engine.Project
	var startDate, createdAt string
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Client, &startDate, &p.Sprints, &p.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.StartDate, _ = time.Parse(time.RFC3339, startDate)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func scanEmployee(row scanner) (*engine.Employee, error) {
	var e engine.Employee
	var active int
	var createdAt string
	err := row.Scan(&e.ID, &e.Email, &e.Name, &active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Active = active != 0
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func scanAssignment(row scanner) (*engine.Assignment, error) {
	var a engine.Assignment
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.ProjectID, &a.EmployeeID, &a.RoleID, &a.LCATID,
		&a.FundedHours, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

func scanAllocation(row scanner) (*engine.Allocation, error) {
	var a engine.Allocation
	var year, month int
	var updatedAt string
	err := row.Scan(&a.ID, &a.AssignmentID, &year, &month, &a.Hours, &a.Version, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Month = engine.YM(year, time.Month(month))
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

func scanOverride(row scanner) (*engine.MonthlyOverride, error) {
	var o engine.MonthlyOverride
	var year, month int
	err := row.Scan(&o.ID, &o.ProjectID, &year, &month, &o.Hours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Month = engine.YM(year, time.Month(month))
	return &o, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &engine.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
