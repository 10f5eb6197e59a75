/*
handlers.go - HTTP API handlers for the staffing allocation engine

PURPOSE:
  Exposes the allocation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Projects:
    GET    /api/projects                     List projects
    POST   /api/projects                     Create/replace project
    GET    /api/projects/{id}                Get project
    GET    /api/projects/{id}/assignments    Roster of the project
    GET    /api/projects/{id}/overrides      Monthly capacity overrides
    PUT    /api/projects/{id}/overrides      Set override for a month
    DELETE /api/projects/{id}/overrides/{month}  Clear override
    GET    /api/projects/{id}/burndown       Planned-vs-actual burn

  Employees:
    GET    /api/employees                    List employees
    POST   /api/employees                    Create/replace employee
    GET    /api/employees/{id}               Get employee
    GET    /api/employees/{id}/assignments   Their assignments
    GET    /api/employees/{id}/capacity      Cross-project month view
    GET    /api/employees/{id}/timeline      Month-by-month history

  Assignments:
    POST   /api/assignments                  Staff employee on project
    GET    /api/assignments/{id}             Get assignment
    PUT    /api/assignments/{id}             Update role/lcat/budget
    DELETE /api/assignments/{id}             Remove (cascades allocations)
    GET    /api/assignments/{id}/budget      Funded-vs-allocated summary
    GET    /api/assignments/{id}/allocations List allocation cells
    PUT    /api/assignments/{id}/allocations Upsert one cell
    POST   /api/assignments/{id}/distribute  Even-spread planner

  Reports:
    GET    /api/reports/dashboard            Combined portfolio view
    GET    /api/reports/overallocated        FTE > 100% in range
    GET    /api/reports/bench                FTE <= 25% in month
    GET    /api/reports/utilization          Allocated/funded ratio
    GET    /api/reports/roles                Utilization by role
    GET    /api/reports/conflicts/latest     Cached scanner result

ERROR HANDLING:
  Domain errors map to HTTP status:
  - 400: validation errors, malformed months
  - 404: unknown project/employee/assignment
  - 409: duplicate assignment, stale allocation version
  - 500: storage errors

QUERY PARAMETERS:
  month, from, to all take "YYYY-MM"; month defaults to the current
  month, from/to default to a window around it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scanner.go: Scheduled conflict scans
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     engine.TxStore
	Ledger    *engine.Ledger
	Capacity  *engine.Capacity
	Portfolio *engine.Portfolio
	Scanner   *ConflictScanner

	log zerolog.Logger
}

// NewHandler wires the handler over one store and calendar.
func NewHandler(store engine.TxStore, calendar engine.Calendar, log zerolog.Logger) *Handler {
	capacity := engine.NewCapacity(store, calendar)
	return &Handler{
		Store:     store,
		Ledger:    engine.NewLedger(store, calendar),
		Capacity:  capacity,
		Portfolio: engine.NewPortfolio(store, capacity, calendar),
		log:       log,
	}
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := projectFromRequest(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.SaveProject(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	p, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if p == nil {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

func (h *Handler) ListProjectAssignments(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	assignments, err := h.Store.ListAssignmentsByProject(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	overrides, err := h.Store.ListOverridesByProject(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]OverrideDTO, len(overrides))
	for i, o := range overrides {
		dtos[i] = toOverrideDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	var req SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ym, err := engine.ParseYearMonth(req.Month)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}
	o, err := h.Ledger.SetOverride(r.Context(), id, ym, req.Hours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverrideDTO(*o))
}

func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	ym, err := engine.ParseYearMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}
	if err := h.Ledger.ClearOverride(r.Context(), id, ym); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ProjectBurnDown(w http.ResponseWriter, r *http.Request) {
	id := engine.ProjectID(chi.URLParam(r, "id"))
	from, to, err := rangeParams(r, 0, 5)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := h.Portfolio.ProjectBurnDown(r.Context(), id, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBurnDownDTOs(points))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	e, err := employeeFromRequest(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	e, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if e == nil {
		writeJSONError(w, http.StatusNotFound, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

func (h *Handler) ListEmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	assignments, err := h.Store.ListAssignmentsByEmployee(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EmployeeCapacity returns the cross-project view for ?month= (default:
// the current month).
func (h *Handler) EmployeeCapacity(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	ym, err := monthParam(r, "month", engine.CurrentMonth())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.Capacity.EmployeeMonth(r.Context(), id, ym)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCapacityDTO(*m))
}

func (h *Handler) EmployeeTimeline(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	from, to, err := rangeParams(r, -2, 9)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	timeline, err := h.Portfolio.EmployeeTimeline(r.Context(), id, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTOs(timeline))
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err := h.Ledger.CreateAssignment(r.Context(),
		engine.ProjectID(req.ProjectID), engine.EmployeeID(req.EmployeeID),
		req.RoleID, req.LCATID, req.FundedHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*a))
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if a == nil {
		writeJSONError(w, http.StatusNotFound, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	var req UpdateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err := h.Ledger.UpdateAssignment(r.Context(), id, req.RoleID, req.LCATID, req.FundedHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteAssignment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignmentBudget(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	budget, err := h.Ledger.AssignmentBudget(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(*budget))
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	allocations, err := h.Store.ListAllocationsByAssignment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = toAllocationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpsertAllocation writes one grid cell. Zero hours clears the cell and
// returns 204.
func (h *Handler) UpsertAllocation(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	var req UpsertAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ym, err := engine.ParseYearMonth(req.Month)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid month, want YYYY-MM")
		return
	}
	version := engine.VersionAny
	if req.Version != nil {
		version = *req.Version
	}
	a, err := h.Ledger.UpsertAllocation(r.Context(), id, ym, req.Hours, version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if a == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	id := engine.AssignmentID(chi.URLParam(r, "id"))
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	from, err := engine.ParseYearMonth(req.StartMonth)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid start_month, want YYYY-MM")
		return
	}
	to, err := engine.ParseYearMonth(req.EndMonth)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid end_month, want YYYY-MM")
		return
	}
	written, err := h.Ledger.Distribute(r.Context(), id, from, to, req.TotalHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]AllocationDTO, len(written))
	for i, a := range written {
		dtos[i] = toAllocationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, "month", engine.CurrentMonth())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	roster, err := h.activeRoster(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.Portfolio.Dashboard(r.Context(), roster, ym)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(*d))
}

func (h *Handler) OverAllocatedReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeParams(r, 0, 2)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	roster, err := h.activeRoster(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.Portfolio.OverAllocated(r.Context(), roster, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverAllocationDTOs(entries))
}

func (h *Handler) BenchReport(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, "month", engine.CurrentMonth())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	roster, err := h.activeRoster(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.Portfolio.Bench(r.Context(), roster, ym)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBenchDTOs(entries))
}

func (h *Handler) UtilizationReport(w http.ResponseWriter, r *http.Request) {
	roster, err := h.activeRoster(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.Portfolio.Utilization(r.Context(), roster)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUtilizationDTO(*summary))
}

func (h *Handler) RoleReport(w http.ResponseWriter, r *http.Request) {
	roster, err := h.activeRoster(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rollups, err := h.Portfolio.RollupByRole(r.Context(), roster)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleRollupDTOs(rollups))
}

// LatestConflicts serves the scanner's cached result; 404 until the
// first scan has run.
func (h *Handler) LatestConflicts(w http.ResponseWriter, r *http.Request) {
	if h.Scanner == nil {
		writeJSONError(w, http.StatusNotFound, "conflict scanner is not running")
		return
	}
	report := h.Scanner.Latest()
	if report == nil {
		writeJSONError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, *report)
}

// activeRoster is every active employee, the default population for
// portfolio reports.
func (h *Handler) activeRoster(r *http.Request) ([]engine.EmployeeID, error) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		return nil, err
	}
	roster := make([]engine.EmployeeID, 0, len(employees))
	for _, e := range employees {
		if e.Active {
			roster = append(roster, e.ID)
		}
	}
	return roster, nil
}
