package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/idgen"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/store"
)

// CreateProject validates and stores a new project.
func (s *PlanServer) CreateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := model.ValidateProject(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		id, err := idgen.Project()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		p.ID = id
	}
	p.CreatedAt = s.now()
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicProjectCreated, p.ID, p.CreatedBy, events.ProjectCreated{Project: p})
	return p, nil
}

// ListProjects returns the projects of an organization.
func (s *PlanServer) ListProjects(ctx context.Context, organizationID string) ([]*model.Project, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, model.NewValidationError("organization_id", "is required")
	}
	projects, err := s.store.ListProjects(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// CreateInitiative stores a new initiative in an existing project. Status
// defaults to not_started and phase to 1.
func (s *PlanServer) CreateInitiative(ctx context.Context, in *model.Initiative) (*model.Initiative, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = model.InitiativeNotStarted
	}
	if in.Phase == 0 {
		in.Phase = 1
	}
	if err := model.ValidateInitiative(in); err != nil {
		return nil, err
	}
	if _, err := s.getProject(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}
	if in.ID == "" {
		id, err := idgen.Initiative()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		in.ID = id
	}
	in.CreatedAt = s.now()
	in.UpdatedAt = in.CreatedAt
	if err := s.store.CreateInitiative(ctx, in); err != nil {
		return nil, fmt.Errorf("create initiative: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicInitiativeCreated, in.ID, in.CreatedBy, events.InitiativeCreated{Initiative: in})
	return in, nil
}

// ListInitiatives returns the initiatives of a project.
func (s *PlanServer) ListInitiatives(ctx context.Context, projectID string) ([]*model.Initiative, error) {
	if _, err := s.getProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	initiatives, err := s.store.ListInitiatives(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	return initiatives, nil
}

// UpdateInitiativeStatus moves an initiative to a new status.
func (s *PlanServer) UpdateInitiativeStatus(ctx context.Context, id string, status model.InitiativeStatus, actor string) (*model.Initiative, error) {
	if !status.IsValid() {
		return nil, model.NewValidationError("status", fmt.Sprintf("invalid status %q", status))
	}
	var (
		updated  *model.Initiative
		previous model.InitiativeStatus
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		cur, err := s.getInitiative(ctx, tx, "id", id)
		if err != nil {
			return err
		}
		previous = cur.Status
		updated, err = tx.UpdateInitiativeStatus(ctx, id, status)
		if err != nil {
			return lookupError(err, "initiative", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous != status {
		s.recordAndPublish(ctx, events.TopicInitiativeStatusChanged, id, actor, events.InitiativeStatusChanged{
			Initiative: updated,
			Previous:   previous,
		})
	}
	return updated, nil
}

// CreateTask stores a new task in an existing project. Status defaults to
// todo and priority to normal.
func (s *PlanServer) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityNormal
	}
	if err := model.ValidateTask(t); err != nil {
		return nil, err
	}
	if _, err := s.getProject(ctx, s.store, t.ProjectID); err != nil {
		return nil, err
	}
	if t.ID == "" {
		id, err := idgen.Task()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		t.ID = id
	}
	if t.DueAt != nil {
		d := t.DueAt.UTC()
		t.DueAt = &d
	}
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicTaskCreated, t.ID, t.CreatedBy, events.TaskCreated{Task: t})
	return t, nil
}

// ListTasks returns tasks matching filter. A project filter must name an
// existing project.
func (s *PlanServer) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	if filter.ProjectID != "" {
		if _, err := s.getProject(ctx, s.store, filter.ProjectID); err != nil {
			return nil, err
		}
	}
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to a task.
func (s *PlanServer) UpdateTask(ctx context.Context, id string, upd *model.TaskUpdate, actor string) (*model.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	var (
		task    *model.Task
		changes map[string]any
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		t, err := tx.GetTask(ctx, id)
		if err != nil {
			return lookupError(err, "task", id)
		}
		changes = upd.Apply(t)
		if len(changes) == 0 {
			task = t
			return nil
		}
		if err := model.ValidateTask(t); err != nil {
			return err
		}
		if t.DueAt != nil {
			d := t.DueAt.UTC()
			t.DueAt = &d
		}
		t.UpdatedAt = s.now()
		if err := tx.UpdateTask(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		s.recordAndPublish(ctx, events.TopicTaskUpdated, id, actor, events.TaskUpdated{Task: task, Changes: changes})
	}
	return task, nil
}

// SetCapacity stores a per-user weekly ceiling that overrides the file ceilings.
func (s *PlanServer) SetCapacity(ctx context.Context, userID string, hoursPerWeek float64, actor string) error {
	if strings.TrimSpace(userID) == "" {
		return model.NewValidationError("user_id", "is required")
	}
	if hoursPerWeek <= 0 {
		return model.NewValidationError("hours_per_week", "must be greater than zero")
	}
	cfg, err := model.NewCapacityConfig(userID, hoursPerWeek, s.now())
	if err != nil {
		return err
	}
	if err := s.store.SetConfig(ctx, cfg); err != nil {
		return fmt.Errorf("set capacity: %w", err)
	}
	s.recordAndPublish(ctx, events.TopicCapacityUpdated, userID, actor, events.CapacityUpdated{
		UserID:       userID,
		HoursPerWeek: hoursPerWeek,
	})
	return nil
}

// Capacities returns the effective ceilings: the file ceilings with stored
// overrides applied.
func (s *PlanServer) Capacities(ctx context.Context) (capacity.Ceilings, error) {
	calc, err := s.capacityCalculator(ctx)
	if err != nil {
		return capacity.Ceilings{}, err
	}
	c := calc.Ceilings
	if c.DefaultHoursPerWeek <= 0 {
		c.DefaultHoursPerWeek = capacity.DefaultHoursPerWeek
	}
	return c, nil
}
