package store

import (
	"context"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Store defines the persistence interface for planning data.
//
// Lookups of a missing row return sql.ErrNoRows; writes that collide with a
// uniqueness constraint return *model.ConflictError.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, organizationID string) ([]*model.Project, error) // "" lists every project

	// Initiatives
	CreateInitiative(ctx context.Context, initiative *model.Initiative) error
	GetInitiative(ctx context.Context, id string) (*model.Initiative, error)
	ListInitiatives(ctx context.Context, projectID string) ([]*model.Initiative, error)
	ListInitiativesByOrganization(ctx context.Context, organizationID string) ([]*model.Initiative, error)
	UpdateInitiativeStatus(ctx context.Context, id string, status model.InitiativeStatus) (*model.Initiative, error)

	// Dependencies
	AddDependency(ctx context.Context, dep *model.Dependency) error
	RemoveDependency(ctx context.Context, id string) (*model.Dependency, error) // nil, nil when absent
	ListDependencies(ctx context.Context, projectID string) ([]*model.Dependency, error)

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, subjectID string) ([]*model.Event, error)

	// Configs
	SetConfig(ctx context.Context, config *model.Config) error
	GetConfig(ctx context.Context, key string) (*model.Config, error)
	ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error)
	ListAllConfigs(ctx context.Context) ([]*model.Config, error)
	DeleteConfig(ctx context.Context, key string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
