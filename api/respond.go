/*
respond.go - JSON responses, error mapping, and request parsing helpers
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/staffing-engine/engine"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps domain errors onto HTTP status codes; anything
// unrecognized is a 500 and gets logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case engine.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case engine.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case engine.IsConflict(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// monthParam reads a "YYYY-MM" query parameter, falling back to def.
func monthParam(r *http.Request, name string, def engine.YearMonth) (engine.YearMonth, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	ym, err := engine.ParseYearMonth(v)
	if err != nil {
		return engine.YearMonth{}, fmt.Errorf("invalid %s %q, want YYYY-MM", name, v)
	}
	return ym, nil
}

// rangeParams reads from/to query parameters. Defaults are offsets in
// months relative to the current month.
func rangeParams(r *http.Request, fromOffset, toOffset int) (engine.YearMonth, engine.YearMonth, error) {
	now := engine.CurrentMonth()
	from, err := monthParam(r, "from", now.Add(fromOffset))
	if err != nil {
		return engine.YearMonth{}, engine.YearMonth{}, err
	}
	to, err := monthParam(r, "to", now.Add(toOffset))
	if err != nil {
		return engine.YearMonth{}, engine.YearMonth{}, err
	}
	return from, to, nil
}

func projectFromRequest(req SaveProjectRequest) (engine.Project, error) {
	if strings.TrimSpace(req.Code) == "" {
		return engine.Project{}, &engine.ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return engine.Project{}, &engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	status := engine.ProjectStatus(req.Status)
	if req.Status == "" {
		status = engine.StatusActive
	}
	if !engine.ValidStatus(status) {
		return engine.Project{}, &engine.ValidationError{
			Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Status)}
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return engine.Project{}, &engine.ValidationError{
			Field: "start_date", Reason: "want YYYY-MM-DD"}
	}
	sprints := req.Sprints
	if sprints <= 0 {
		sprints = 1
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return engine.Project{
		ID:        engine.ProjectID(id),
		Code:      req.Code,
		Name:      req.Name,
		Client:    req.Client,
		StartDate: startDate,
		Sprints:   sprints,
		Status:    status,
	}, nil
}

func employeeFromRequest(req SaveEmployeeRequest) (engine.Employee, error) {
	if strings.TrimSpace(req.Email) == "" {
		return engine.Employee{}, &engine.ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return engine.Employee{}, &engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return engine.Employee{
		ID:     engine.EmployeeID(id),
		Email:  req.Email,
		Name:   req.Name,
		Active: active,
	}, nil
}
