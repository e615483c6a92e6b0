package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/outpost/internal/db"
)

var validate = validator.New()

// CreateRunRequest is the body for POST /runs.
type CreateRunRequest struct {
	Query string `json:"query" validate:"required,min=2,max=500"`
}

// handleCreateRun inserts a new PENDING run. The insert notifies the worker,
// so responding 202 here is honest: processing starts asynchronously.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "query is required (2-500 characters)")
		return
	}

	run, err := s.store.CreateRun(r.Context(), req.Query)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	s.jsonResponse(w, http.StatusAccepted, run)
}

// handleListRuns returns recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), 50)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns a single run by ID.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleListLeads returns the leads produced by a run.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "run not found")
		return
	}

	leads, err := s.store.ListLeadsByRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []db.Lead{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runId": runID,
		"leads": leads,
	})
}
