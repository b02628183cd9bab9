package server

import (
	"net/http"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// handleCreateProject handles POST /v1/projects.
func (s *PlanServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if !decodeBody(w, r, &p) {
		return
	}
	created, err := s.CreateProject(r.Context(), &p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleListProjects handles GET /v1/organizations/{id}/projects.
func (s *PlanServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ListProjects(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// handleCreateInitiative handles POST /v1/initiatives.
func (s *PlanServer) handleCreateInitiative(w http.ResponseWriter, r *http.Request) {
	var in model.Initiative
	if !decodeBody(w, r, &in) {
		return
	}
	created, err := s.CreateInitiative(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleListInitiatives handles GET /v1/projects/{id}/initiatives.
func (s *PlanServer) handleListInitiatives(w http.ResponseWriter, r *http.Request) {
	initiatives, err := s.ListInitiatives(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if initiatives == nil {
		initiatives = []*model.Initiative{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"initiatives": initiatives})
}

// handleUpdateInitiativeStatus handles PATCH /v1/initiatives/{id}/status.
func (s *PlanServer) handleUpdateInitiativeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.InitiativeStatus `json:"status"`
		Actor  string                 `json:"actor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := s.UpdateInitiativeStatus(r.Context(), r.PathValue("id"), req.Status, req.Actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// handleCreateTask handles POST /v1/tasks.
func (s *PlanServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t model.Task
	if !decodeBody(w, r, &t) {
		return
	}
	created, err := s.CreateTask(r.Context(), &t)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleListTasks handles GET /v1/projects/{id}/tasks.
// Supports ?assignee=, ?status= (comma-separated) and ?open=true.
func (s *PlanServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		ProjectID:   r.PathValue("id"),
		AssigneeID:  q.Get("assignee"),
		ExcludeDone: q.Get("open") == "true",
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.TaskStatus(strings.TrimSpace(st)))
		}
	}
	tasks, err := s.ListTasks(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleUpdateTask handles PATCH /v1/tasks/{id}.
func (s *PlanServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		model.TaskUpdate
		Actor string `json:"actor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := s.UpdateTask(r.Context(), r.PathValue("id"), &req.TaskUpdate, req.Actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleSetCapacity handles PUT /v1/capacities/{user}.
func (s *PlanServer) handleSetCapacity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HoursPerWeek float64 `json:"hours_per_week"`
		Actor        string  `json:"actor"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user := r.PathValue("user")
	if err := s.SetCapacity(r.Context(), user, req.HoursPerWeek, req.Actor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": user, "hours_per_week": req.HoursPerWeek})
}

// handleListCapacities handles GET /v1/capacities.
func (s *PlanServer) handleListCapacities(w http.ResponseWriter, r *http.Request) {
	c, err := s.Capacities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
