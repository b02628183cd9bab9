package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *PlanServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	// Analysis
	mux.HandleFunc("GET /v1/projects/{id}/graph", s.handleGetGraph)
	mux.HandleFunc("POST /v1/dependencies", s.handleAddDependency)
	mux.HandleFunc("DELETE /v1/dependencies/{id}", s.handleRemoveDependency)
	mux.HandleFunc("GET /v1/blockers/{type}/{id}", s.handleExplainBlocker)
	mux.HandleFunc("GET /v1/projects/{id}/progress", s.handleProjectProgress)
	mux.HandleFunc("GET /v1/organizations/{id}/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /v1/users/{id}/capacity", s.handleUserCapacity)
	mux.HandleFunc("GET /v1/projects/{id}/overloads", s.handleDetectOverloads)
	mux.HandleFunc("GET /v1/projects/{id}/health", s.handleHealthSnapshot)

	// Planning data
	mux.HandleFunc("POST /v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /v1/organizations/{id}/projects", s.handleListProjects)
	mux.HandleFunc("POST /v1/initiatives", s.handleCreateInitiative)
	mux.HandleFunc("GET /v1/projects/{id}/initiatives", s.handleListInitiatives)
	mux.HandleFunc("PATCH /v1/initiatives/{id}/status", s.handleUpdateInitiativeStatus)
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/projects/{id}/tasks", s.handleListTasks)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("PUT /v1/capacities/{user}", s.handleSetCapacity)
	mux.HandleFunc("GET /v1/capacities", s.handleListCapacities)
	return RequestLogger(AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *PlanServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto an HTTP status.
// Storage failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *model.ValidationError
		ce *model.ConflictError
		nf *model.NotFoundError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ce):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
