// Package events defines the mutation events the service emits and the
// publishers that carry them to NATS and Redis.
package events

import (
	"context"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Event topic constants. Subjects are dot-separated so NATS wildcards
// ("kplan.>") and Redis patterns ("kplan.*") both select them.
const (
	TopicProjectCreated          = "kplan.project.created"
	TopicInitiativeCreated       = "kplan.initiative.created"
	TopicInitiativeStatusChanged = "kplan.initiative.status_changed"
	TopicDependencyAdded         = "kplan.dependency.added"
	TopicDependencyRemoved       = "kplan.dependency.removed"
	TopicTaskCreated             = "kplan.task.created"
	TopicTaskUpdated             = "kplan.task.updated"
	TopicCapacityUpdated         = "kplan.capacity.updated"
)

// Event types

type ProjectCreated struct {
	Project *model.Project `json:"project"`
}

type InitiativeCreated struct {
	Initiative *model.Initiative `json:"initiative"`
}

type InitiativeStatusChanged struct {
	Initiative *model.Initiative      `json:"initiative"`
	Previous   model.InitiativeStatus `json:"previous"`
}

type DependencyAdded struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyRemoved struct {
	Dependency *model.Dependency `json:"dependency"`
}

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type CapacityUpdated struct {
	UserID       string  `json:"user_id"`
	HoursPerWeek float64 `json:"hours_per_week"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
