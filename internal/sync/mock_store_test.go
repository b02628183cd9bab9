package sync

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/store"
)

// mockStore is a minimal in-memory store for sync tests. It implements only
// the read methods ExportJSONL uses; the embedded interface panics on the rest.
type mockStore struct {
	store.Store

	projects    []*model.Project
	initiatives map[string][]*model.Initiative // by project
	deps        map[string][]*model.Dependency // by project
	tasks       []*model.Task
	configs     []*model.Config

	taskErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		initiatives: make(map[string][]*model.Initiative),
		deps:        make(map[string][]*model.Dependency),
	}
}

func (m *mockStore) ListProjects(_ context.Context, organizationID string) ([]*model.Project, error) {
	if organizationID != "" {
		return nil, errors.New("sync export must list every project")
	}
	return append([]*model.Project(nil), m.projects...), nil
}

func (m *mockStore) ListInitiatives(_ context.Context, projectID string) ([]*model.Initiative, error) {
	return append([]*model.Initiative(nil), m.initiatives[projectID]...), nil
}

func (m *mockStore) ListDependencies(_ context.Context, projectID string) ([]*model.Dependency, error) {
	return append([]*model.Dependency(nil), m.deps[projectID]...), nil
}

func (m *mockStore) ListTasks(_ context.Context, _ model.TaskFilter) ([]*model.Task, error) {
	if m.taskErr != nil {
		return nil, m.taskErr
	}
	return append([]*model.Task(nil), m.tasks...), nil
}

func (m *mockStore) ListAllConfigs(_ context.Context) ([]*model.Config, error) {
	return append([]*model.Config(nil), m.configs...), nil
}
