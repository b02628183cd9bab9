package server

import (
	"net/http"
)

// handleGetGraph handles GET /v1/projects/{id}/graph.
// Returns initiatives as nodes, dependencies as edges, and every deadlock.
func (s *PlanServer) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	resp, err := s.BuildGraph(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAddDependency handles POST /v1/dependencies.
func (s *PlanServer) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var in DependencyInput
	if !decodeBody(w, r, &in) {
		return
	}
	dep, err := s.AddDependency(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

// handleRemoveDependency handles DELETE /v1/dependencies/{id}.
// Removing an unknown dependency still returns 204.
func (s *PlanServer) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	if _, err := s.RemoveDependency(r.Context(), r.PathValue("id"), r.URL.Query().Get("actor")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExplainBlocker handles GET /v1/blockers/{type}/{id}.
func (s *PlanServer) handleExplainBlocker(w http.ResponseWriter, r *http.Request) {
	exp, err := s.ExplainBlocker(r.Context(), r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// handleProjectProgress handles GET /v1/projects/{id}/progress.
func (s *PlanServer) handleProjectProgress(w http.ResponseWriter, r *http.Request) {
	m, err := s.ProjectProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handlePortfolio handles GET /v1/organizations/{id}/portfolio.
func (s *PlanServer) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	m, err := s.PortfolioMetrics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleUserCapacity handles GET /v1/users/{id}/capacity.
// An optional project_id query parameter scopes the tasks counted.
func (s *PlanServer) handleUserCapacity(w http.ResponseWriter, r *http.Request) {
	uc, err := s.UserCapacity(r.Context(), r.PathValue("id"), r.URL.Query().Get("project_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

// handleDetectOverloads handles GET /v1/projects/{id}/overloads.
func (s *PlanServer) handleDetectOverloads(w http.ResponseWriter, r *http.Request) {
	res, err := s.DetectOverloads(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleHealthSnapshot handles GET /v1/projects/{id}/health.
func (s *PlanServer) handleHealthSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.HealthSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
