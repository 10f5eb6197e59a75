// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type allocationKey struct {
	AssignmentID engine.AssignmentID
	Month        engine.YearMonth
}

type overrideKey struct {
	ProjectID engine.ProjectID
	Month     engine.YearMonth
}

type Memory struct {
	mu          sync.RWMutex
	projects    map[engine.ProjectID]engine.Project
	employees   map[engine.EmployeeID]engine.Employee
	assignments map[engine.AssignmentID]engine.Assignment
	allocations map[allocationKey]engine.Allocation
	overrides   map[overrideKey]engine.MonthlyOverride
}

func NewMemory() *Memory {
	return &Memory{
		projects:    make(map[engine.ProjectID]engine.Project),
		employees:   make(map[engine.EmployeeID]engine.Employee),
		assignments: make(map[engine.AssignmentID]engine.Assignment),
		allocations: make(map[allocationKey]engine.Allocation),
		overrides:   make(map[overrideKey]engine.MonthlyOverride),
	}
}

// -----------------------------------------------------------------------------
// Projects
// -----------------------------------------------------------------------------

func (m *Memory) SaveProject(_ context.Context, p engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) GetProject(_ context.Context, id engine.ProjectID) (*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	projects := make([]engine.Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })
	return projects, nil
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

func (m *Memory) SaveEmployee(_ context.Context, e engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	employees := make([]engine.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Email < employees[j].Email })
	return employees, nil
}

// -----------------------------------------------------------------------------
// Assignments
// -----------------------------------------------------------------------------

func (m *Memory) InsertAssignment(_ context.Context, a engine.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments {
		if existing.ProjectID == a.ProjectID && existing.EmployeeID == a.EmployeeID {
			return &engine.ConflictError{Reason: "assignment exists for (project, employee)"}
		}
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) UpdateAssignment(_ context.Context, a engine.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return &engine.NotFoundError{Kind: "assignment", ID: string(a.ID)}
	}
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id engine.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return &engine.NotFoundError{Kind: "assignment", ID: string(id)}
	}
	delete(m.assignments, id)
	// Cascade: drop the assignment's allocation cells.
	for k := range m.allocations {
		if k.AssignmentID == id {
			delete(m.allocations, k)
		}
	}
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, id engine.AssignmentID) (*engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) FindAssignment(_ context.Context, projectID engine.ProjectID, employeeID engine.EmployeeID) (*engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.ProjectID == projectID && a.EmployeeID == employeeID {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListAssignmentsByEmployee(_ context.Context, employeeID engine.EmployeeID) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Assignment
	for _, a := range m.assignments {
		if a.EmployeeID == employeeID {
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func (m *Memory) ListAssignmentsByProject(_ context.Context, projectID engine.ProjectID) ([]engine.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Assignment
	for _, a := range m.assignments {
		if a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func sortAssignments(assignments []engine.Assignment) {
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
}

// -----------------------------------------------------------------------------
// Allocations
// -----------------------------------------------------------------------------

func (m *Memory) PutAllocation(_ context.Context, a engine.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations[allocationKey{AssignmentID: a.AssignmentID, Month: a.Month}] = a
	return nil
}

func (m *Memory) DeleteAllocation(_ context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.allocations, allocationKey{AssignmentID: assignmentID, Month: ym})
	return nil
}

func (m *Memory) GetAllocation(_ context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) (*engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.allocations[allocationKey{AssignmentID: assignmentID, Month: ym}]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *Memory) ListAllocationsByAssignment(_ context.Context, assignmentID engine.AssignmentID) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Allocation
	for _, a := range m.allocations {
		if a.AssignmentID == assignmentID {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (m *Memory) ListAllocationsByEmployee(_ context.Context, employeeID engine.EmployeeID, from, to engine.YearMonth) ([]engine.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Allocation
	for _, a := range m.allocations {
		assignment, ok := m.assignments[a.AssignmentID]
		if !ok || assignment.EmployeeID != employeeID {
			continue
		}
		if a.Month.Before(from) || a.Month.After(to) {
			continue
		}
		result = append(result, a)
	}
	sortAllocations(result)
	return result, nil
}

func sortAllocations(allocations []engine.Allocation) {
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Month.Index() != allocations[j].Month.Index() {
			return allocations[i].Month.Index() < allocations[j].Month.Index()
		}
		return allocations[i].AssignmentID < allocations[j].AssignmentID
	})
}

// -----------------------------------------------------------------------------
// Overrides
// -----------------------------------------------------------------------------

func (m *Memory) PutOverride(_ context.Context, o engine.MonthlyOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[overrideKey{ProjectID: o.ProjectID, Month: o.Month}] = o
	return nil
}

func (m *Memory) DeleteOverride(_ context.Context, projectID engine.ProjectID, ym engine.YearMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, overrideKey{ProjectID: projectID, Month: ym})
	return nil
}

func (m *Memory) GetOverride(_ context.Context, projectID engine.ProjectID, ym engine.YearMonth) (*engine.MonthlyOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.overrides[overrideKey{ProjectID: projectID, Month: ym}]; ok {
		return &o, nil
	}
	return nil, nil
}

func (m *Memory) ListOverridesByProject(_ context.Context, projectID engine.ProjectID) ([]engine.MonthlyOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.MonthlyOverride
	for _, o := range m.overrides {
		if o.ProjectID == projectID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month.Index() < result[j].Month.Index() })
	return result, nil
}

// =============================================================================
// TRANSACTION SUPPORT - Snapshot + rollback on error
// =============================================================================

// WithTx simulates a transaction by snapshotting state and restoring it when
// fn fails. Serialized under the write lock, so fn runs against a view that
// bypasses the store's own locking.
func (m *Memory) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	projects    map[engine.ProjectID]engine.Project
	employees   map[engine.EmployeeID]engine.Employee
	assignments map[engine.AssignmentID]engine.Assignment
	allocations map[allocationKey]engine.Allocation
	overrides   map[overrideKey]engine.MonthlyOverride
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		projects:    make(map[engine.ProjectID]engine.Project, len(m.projects)),
		employees:   make(map[engine.EmployeeID]engine.Employee, len(m.employees)),
		assignments: make(map[engine.AssignmentID]engine.Assignment, len(m.assignments)),
		allocations: make(map[allocationKey]engine.Allocation, len(m.allocations)),
		overrides:   make(map[overrideKey]engine.MonthlyOverride, len(m.overrides)),
	}
	for k, v := range m.projects {
		s.projects[k] = v
	}
	for k, v := range m.employees {
		s.employees[k] = v
	}
	for k, v := range m.assignments {
		s.assignments[k] = v
	}
	for k, v := range m.allocations {
		s.allocations[k] = v
	}
	for k, v := range m.overrides {
		s.overrides[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.projects = s.projects
	m.employees = s.employees
	m.assignments = s.assignments
	m.allocations = s.allocations
	m.overrides = s.overrides
}

// txView exposes the parent's maps without taking its mutex (the parent
// holds the write lock for the duration of WithTx).
type txView struct {
	parent *Memory
}

func (tv *txView) SaveProject(_ context.Context, p engine.Project) error {
	tv.parent.projects[p.ID] = p
	return nil
}

func (tv *txView) GetProject(_ context.Context, id engine.ProjectID) (*engine.Project, error) {
	if p, ok := tv.parent.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (tv *txView) ListProjects(ctx context.Context) ([]engine.Project, error) {
	projects := make([]engine.Project, 0, len(tv.parent.projects))
	for _, p := range tv.parent.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })
	return projects, nil
}

func (tv *txView) SaveEmployee(_ context.Context, e engine.Employee) error {
	tv.parent.employees[e.ID] = e
	return nil
}

func (tv *txView) GetEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	if e, ok := tv.parent.employees[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (tv *txView) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	employees := make([]engine.Employee, 0, len(tv.parent.employees))
	for _, e := range tv.parent.employees {
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Email < employees[j].Email })
	return employees, nil
}

func (tv *txView) InsertAssignment(_ context.Context, a engine.Assignment) error {
	for _, existing := range tv.parent.assignments {
		if existing.ProjectID == a.ProjectID && existing.EmployeeID == a.EmployeeID {
			return &engine.ConflictError{Reason: "assignment exists for (project, employee)"}
		}
	}
	tv.parent.assignments[a.ID] = a
	return nil
}

func (tv *txView) UpdateAssignment(_ context.Context, a engine.Assignment) error {
	if _, ok := tv.parent.assignments[a.ID]; !ok {
		return &engine.NotFoundError{Kind: "assignment", ID: string(a.ID)}
	}
	tv.parent.assignments[a.ID] = a
	return nil
}

func (tv *txView) DeleteAssignment(_ context.Context, id engine.AssignmentID) error {
	if _, ok := tv.parent.assignments[id]; !ok {
		return &engine.NotFoundError{Kind: "assignment", ID: string(id)}
	}
	delete(tv.parent.assignments, id)
	for k := range tv.parent.allocations {
		if k.AssignmentID == id {
			delete(tv.parent.allocations, k)
		}
	}
	return nil
}

func (tv *txView) GetAssignment(_ context.Context, id engine.AssignmentID) (*engine.Assignment, error) {
	if a, ok := tv.parent.assignments[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (tv *txView) FindAssignment(_ context.Context, projectID engine.ProjectID, employeeID engine.EmployeeID) (*engine.Assignment, error) {
	for _, a := range tv.parent.assignments {
		if a.ProjectID == projectID && a.EmployeeID == employeeID {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (tv *txView) ListAssignmentsByEmployee(_ context.Context, employeeID engine.EmployeeID) ([]engine.Assignment, error) {
	var result []engine.Assignment
	for _, a := range tv.parent.assignments {
		if a.EmployeeID == employeeID {
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func (tv *txView) ListAssignmentsByProject(_ context.Context, projectID engine.ProjectID) ([]engine.Assignment, error) {
	var result []engine.Assignment
	for _, a := range tv.parent.assignments {
		if a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func (tv *txView) PutAllocation(_ context.Context, a engine.Allocation) error {
	tv.parent.allocations[allocationKey{AssignmentID: a.AssignmentID, Month: a.Month}] = a
	return nil
}

func (tv *txView) DeleteAllocation(_ context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) error {
	delete(tv.parent.allocations, allocationKey{AssignmentID: assignmentID, Month: ym})
	return nil
}

func (tv *txView) GetAllocation(_ context.Context, assignmentID engine.AssignmentID, ym engine.YearMonth) (*engine.Allocation, error) {
	if a, ok := tv.parent.allocations[allocationKey{AssignmentID: assignmentID, Month: ym}]; ok {
		return &a, nil
	}
	return nil, nil
}

func (tv *txView) ListAllocationsByAssignment(_ context.Context, assignmentID engine.AssignmentID) ([]engine.Allocation, error) {
	var result []engine.Allocation
	for _, a := range tv.parent.allocations {
		if a.AssignmentID == assignmentID {
			result = append(result, a)
		}
	}
	sortAllocations(result)
	return result, nil
}

func (tv *txView) ListAllocationsByEmployee(_ context.Context, employeeID engine.EmployeeID, from, to engine.YearMonth) ([]engine.Allocation, error) {
	var result []engine.Allocation
	for _, a := range tv.parent.allocations {
		assignment, ok := tv.parent.assignments[a.AssignmentID]
		if !ok || assignment.EmployeeID != employeeID {
			continue
		}
		if a.Month.Before(from) || a.Month.After(to) {
			continue
		}
		result = append(result, a)
	}
	sortAllocations(result)
	return result, nil
}

func (tv *txView) PutOverride(_ context.Context, o engine.MonthlyOverride) error {
	tv.parent.overrides[overrideKey{ProjectID: o.ProjectID, Month: o.Month}] = o
	return nil
}

func (tv *txView) DeleteOverride(_ context.Context, projectID engine.ProjectID, ym engine.YearMonth) error {
	delete(tv.parent.overrides, overrideKey{ProjectID: projectID, Month: ym})
	return nil
}

func (tv *txView) GetOverride(_ context.Context, projectID engine.ProjectID, ym engine.YearMonth) (*engine.MonthlyOverride, error) {
	if o, ok := tv.parent.overrides[overrideKey{ProjectID: projectID, Month: ym}]; ok {
		return &o, nil
	}
	return nil, nil
}

func (tv *txView) ListOverridesByProject(_ context.Context, projectID engine.ProjectID) ([]engine.MonthlyOverride, error) {
	var result []engine.MonthlyOverride
	for _, o := range tv.parent.overrides {
		if o.ProjectID == projectID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month.Index() < result[j].Month.Index() })
	return result, nil
}
