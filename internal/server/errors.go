package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moogar0880/problems"

	"guardflow/internal/demo"
	"guardflow/internal/state"
	"guardflow/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, kind, detail string) {
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(detail)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// handleError maps engine and catalog errors onto problem responses.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, demo.ErrUnknownWorkflow):
		writeProblem(w, r, http.StatusNotFound, "workflow_not_found", err.Error())
	case errors.Is(err, workflow.ErrUnknownAction):
		writeProblem(w, r, http.StatusNotFound, "action_not_found", err.Error())
	case errors.Is(err, workflow.ErrGuardBlocked):
		writeProblem(w, r, http.StatusConflict, "guard_blocked", err.Error())
	case errors.Is(err, state.ErrConflict):
		writeProblem(w, r, http.StatusConflict, "conflict", "state changed in another tab; reload and retry")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		problem := problems.NewStatusProblem(http.StatusInternalServerError).
			WithInstance(r.URL.Path).
			WithType("internal_error").
			WithError(err)
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(problem)
	}
}
