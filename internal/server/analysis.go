package server

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/graph"
	"github.com/alfredjeanlab/kplan/internal/idgen"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/progress"
	"github.com/alfredjeanlab/kplan/internal/store"
)

// ObjectInitiative is the only object type blockers can be explained for.
const ObjectInitiative = graph.ObjectInitiative

// loadGraph reads a project's initiatives and dependencies and builds its graph.
func (s *PlanServer) loadGraph(ctx context.Context, projectID string) (*graph.Graph, error) {
	initiatives, err := s.store.ListInitiatives(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	deps, err := s.store.ListDependencies(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	return graph.Build(initiatives, deps), nil
}

// BuildGraph returns the dependency graph of a project together with every
// deadlock in it. A project without initiatives is reported as not found.
func (s *PlanServer) BuildGraph(ctx context.Context, projectID string) (*model.GraphResponse, error) {
	if _, err := s.getProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	g, err := s.loadGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(g.Nodes) == 0 {
		return nil, &model.NotFoundError{Entity: "initiatives of project", ID: projectID}
	}
	return g.Response(projectID, graph.DetectCycles(g)), nil
}

// DependencyInput is the payload for AddDependency.
type DependencyInput struct {
	FromInitiativeID string               `json:"from_initiative_id"`
	ToInitiativeID   string               `json:"to_initiative_id"`
	Type             model.DependencyType `json:"type"`
	CreatedBy        string               `json:"created_by,omitempty"`
}

// AddDependency records that one initiative blocks or relates to another.
// Both initiatives must exist and belong to the same project. The edge is
// stored even when it closes a cycle; cycles are reported by the graph.
func (s *PlanServer) AddDependency(ctx context.Context, in DependencyInput) (*model.Dependency, error) {
	if in.Type == "" {
		in.Type = model.DepBlocks
	}
	dep := &model.Dependency{
		FromInitiativeID: strings.TrimSpace(in.FromInitiativeID),
		ToInitiativeID:   strings.TrimSpace(in.ToInitiativeID),
		Type:             in.Type,
		CreatedAt:        s.now(),
		CreatedBy:        in.CreatedBy,
	}
	if err := model.ValidateDependency(dep); err != nil {
		return nil, err
	}

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		from, err := s.getInitiative(ctx, tx, "from_initiative_id", dep.FromInitiativeID)
		if err != nil {
			return err
		}
		to, err := s.getInitiative(ctx, tx, "to_initiative_id", dep.ToInitiativeID)
		if err != nil {
			return err
		}
		if from.ProjectID != to.ProjectID {
			return model.NewValidationError("to_initiative_id", "must belong to the same project as from_initiative_id")
		}
		id, err := idgen.Dependency()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		dep.ID = id
		return tx.AddDependency(ctx, dep)
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicDependencyAdded, dep.ID, dep.CreatedBy, events.DependencyAdded{Dependency: dep})
	return dep, nil
}

// RemoveDependency deletes a dependency by id. Removing an id that does not
// exist succeeds and reports false.
func (s *PlanServer) RemoveDependency(ctx context.Context, id, actor string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, model.NewValidationError("id", "is required")
	}
	dep, err := s.store.RemoveDependency(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove dependency %s: %w", id, err)
	}
	if dep == nil {
		return false, nil
	}
	s.recordAndPublish(ctx, events.TopicDependencyRemoved, dep.ID, actor, events.DependencyRemoved{Dependency: dep})
	return true, nil
}

// ExplainBlocker explains what keeps an object from progressing.
func (s *PlanServer) ExplainBlocker(ctx context.Context, objectType, objectID string) (*model.BlockerExplanation, error) {
	if objectType != ObjectInitiative {
		return nil, model.NewValidationError("object_type", fmt.Sprintf("unsupported object type %q", objectType))
	}
	in, err := s.getInitiative(ctx, s.store, "object_id", objectID)
	if err != nil {
		return nil, err
	}
	g, err := s.loadGraph(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return graph.ExplainBlocker(g, in.ID), nil
}

// ProjectProgress aggregates initiative progress for one project.
func (s *PlanServer) ProjectProgress(ctx context.Context, projectID string) (*model.ProgressMetrics, error) {
	if _, err := s.getProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	initiatives, err := s.store.ListInitiatives(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	return progress.Calculate(projectID, initiatives), nil
}

// PortfolioMetrics aggregates progress across every project of an organization.
// An organization without projects yields zeroed metrics.
func (s *PlanServer) PortfolioMetrics(ctx context.Context, organizationID string) (*model.PortfolioMetrics, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, model.NewValidationError("organization_id", "is required")
	}
	projects, err := s.store.ListProjects(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	initiatives, err := s.store.ListInitiativesByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	byProject := make(map[string][]*model.Initiative, len(projects))
	for _, in := range initiatives {
		byProject[in.ProjectID] = append(byProject[in.ProjectID], in)
	}
	return progress.Portfolio(organizationID, projects, byProject), nil
}

// capacityCalculator returns the configured calculator with stored per-user
// overrides merged over the file ceilings.
func (s *PlanServer) capacityCalculator(ctx context.Context) (*capacity.Calculator, error) {
	configs, err := s.store.ListConfigs(ctx, model.CapacityNamespace)
	if err != nil {
		return nil, fmt.Errorf("list capacity overrides: %w", err)
	}
	overrides := make(map[string]float64, len(configs))
	for _, c := range configs {
		user, hours, err := c.CapacityOverride()
		if err != nil {
			slog.Warn("ignoring malformed capacity override", "key", c.Key, "error", err)
			continue
		}
		overrides[user] = hours
	}
	calc := s.calculator
	calc.Ceilings = calc.Ceilings.WithOverrides(overrides)
	return &calc, nil
}

// UserCapacity computes a user's weekly load. With a projectID only that
// project's tasks count.
func (s *PlanServer) UserCapacity(ctx context.Context, userID, projectID string) (*model.UserCapacity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.NewValidationError("user_id", "is required")
	}
	if projectID != "" {
		if _, err := s.getProject(ctx, s.store, projectID); err != nil {
			return nil, err
		}
	}
	calc, err := s.capacityCalculator(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{
		ProjectID:   projectID,
		AssigneeID:  userID,
		ExcludeDone: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	uc := calc.Calculate(userID, tasks, s.now())
	uc.ProjectID = projectID
	return uc, nil
}

// DetectOverloads analyzes every assignee of a project's tasks and proposes
// resolutions for those over capacity this week. Only the project's own tasks
// count toward each user's load.
func (s *PlanServer) DetectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error) {
	if _, err := s.getProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	return s.detectOverloads(ctx, projectID)
}

func (s *PlanServer) detectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error) {
	calc, err := s.capacityCalculator(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, model.TaskFilter{ProjectID: projectID, ExcludeDone: true})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	byUser := make(map[string][]*model.Task)
	for _, t := range tasks {
		if t.AssigneeID == "" {
			continue
		}
		byUser[t.AssigneeID] = append(byUser[t.AssigneeID], t)
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	now := s.now()
	caps := make([]*model.UserCapacity, 0, len(users))
	for _, u := range users {
		uc := calc.Calculate(u, byUser[u], now)
		uc.ProjectID = projectID
		caps = append(caps, uc)
	}
	res := capacity.Analyze(caps)
	res.ProjectID = projectID
	if res.CurrentWeek == "" {
		res.CurrentWeek = capacity.WeekKey(now)
	}
	return res, nil
}

// HealthSnapshot combines progress, deadlocks and overloads for a project.
// Any deadlock or sustained overload is critical; any overload or any at-risk
// or blocked initiative is a warning.
func (s *PlanServer) HealthSnapshot(ctx context.Context, projectID string) (*model.HealthSnapshot, error) {
	if _, err := s.getProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	g, err := s.loadGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}
	overloads, err := s.detectOverloads(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap := &model.HealthSnapshot{
		ProjectID: projectID,
		Progress:  progress.Calculate(projectID, g.Initiatives()),
		Deadlocks: graph.DetectCycles(g),
		Overloads: overloads,
	}
	switch {
	case len(snap.Deadlocks) > 0 || overloads.SustainedOverloads > 0:
		snap.Status = model.HealthCritical
	case overloads.HasOverloads || snap.Progress.AtRiskCount > 0 || snap.Progress.BlockedCount > 0:
		snap.Status = model.HealthWarning
	default:
		snap.Status = model.HealthHealthy
	}
	return snap, nil
}
