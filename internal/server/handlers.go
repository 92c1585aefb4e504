package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"guardflow/internal/demo"
	"guardflow/internal/step"
	"guardflow/internal/workflow"
)

// routeResponse tells the client which step to show next.
type routeResponse struct {
	Step     step.Step `json:"step"`
	Location string    `json:"location"`
}

// actionResponse is the body of an accepted action.
type actionResponse struct {
	workflow.Outcome
	Location string `json:"location,omitempty"`
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demo.List())
}

func (s *Server) redirectToFirst(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, stepPath(sess.Name(), sess.ResolveStep("").ID), http.StatusFound)
}

func (s *Server) showStep(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	page := sess.Page(r.Context(), chi.URLParam(r, "stepID"))
	if page.Redirected {
		http.Redirect(w, r, stepPath(sess.Name(), page.Step.ID), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) perform(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	unlock := s.lock(r)
	out, err := sess.Perform(r.Context(), chi.URLParam(r, "actionID"))
	unlock()
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := actionResponse{Outcome: out}
	if out.Navigate {
		resp.Location = stepPath(sess.Name(), out.Next.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	next, err := sess.Next(r.Context(), chi.URLParam(r, "stepID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{Step: next, Location: stepPath(sess.Name(), next.ID)})
}

func (s *Server) jump(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	target := sess.Jump(chi.URLParam(r, "stepID"))
	writeJSON(w, http.StatusOK, routeResponse{Step: target, Location: stepPath(sess.Name(), target.ID)})
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Audit(r.Context()))
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.open(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	unlock := s.lock(r)
	err = sess.Reset(r.Context())
	unlock()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
