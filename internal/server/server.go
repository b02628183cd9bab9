package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/store"
)

// PlanServer runs the dependency and capacity analyses over a Store and serves
// them over HTTP and gRPC. Analyses are recomputed on every call; the server
// keeps no analysis state between requests.
type PlanServer struct {
	store      store.Store
	publisher  events.Publisher
	calculator capacity.Calculator

	// now is the clock used to place tasks in weeks.
	now func() time.Time
}

// NewPlanServer returns a PlanServer backed by the given store and publisher.
// calc supplies the base ceilings and the week window; per-user overrides
// stored under capacity:<user> are merged in on every capacity request.
func NewPlanServer(s store.Store, p events.Publisher, calc *capacity.Calculator) *PlanServer {
	if calc == nil {
		calc = capacity.NewCalculator(capacity.Ceilings{})
	}
	return &PlanServer{
		store:      s,
		publisher:  p,
		calculator: *calc,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// recordAndPublish persists an event to the store and publishes it.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *PlanServer) recordAndPublish(ctx context.Context, topic, subjectID, actor string, event any) {
	log := slog.With("topic", topic, "subject_id", subjectID)
	ev, err := model.NewEvent(topic, subjectID, actor, event, s.now())
	if err != nil {
		log.Warn("failed to encode event", "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, ev); err != nil {
		log.Warn("failed to record event", "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		log.Warn("failed to publish event", "error", err)
	}
}

// lookupError turns a missing row into a NotFoundError and wraps anything else.
func lookupError(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("get %s %s: %w", entity, id, err)
}

func (s *PlanServer) getProject(ctx context.Context, st store.Store, id string) (*model.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewValidationError("project_id", "is required")
	}
	p, err := st.GetProject(ctx, id)
	if err != nil {
		return nil, lookupError(err, "project", id)
	}
	return p, nil
}

func (s *PlanServer) getInitiative(ctx context.Context, st store.Store, field, id string) (*model.Initiative, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewValidationError(field, "is required")
	}
	in, err := st.GetInitiative(ctx, id)
	if err != nil {
		return nil, lookupError(err, "initiative", id)
	}
	return in, nil
}
