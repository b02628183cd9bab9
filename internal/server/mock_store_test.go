package server

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/store"
)

type mockStore struct {
	projects    map[string]*model.Project
	initiatives map[string]*model.Initiative
	deps        map[string]*model.Dependency
	tasks       map[string]*model.Task
	configs     map[string]*model.Config
	events      []*model.Event

	// listErr, when non-nil, is returned by every List call.
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		projects:    make(map[string]*model.Project),
		initiatives: make(map[string]*model.Initiative),
		deps:        make(map[string]*model.Dependency),
		tasks:       make(map[string]*model.Task),
		configs:     make(map[string]*model.Config),
	}
}

func (m *mockStore) CreateProject(_ context.Context, p *model.Project) error {
	if _, ok := m.projects[p.ID]; ok {
		return &model.ConflictError{Entity: "project", Message: p.ID + " already exists"}
	}
	c := *p
	m.projects[p.ID] = &c
	return nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *p
	return &c, nil
}

func (m *mockStore) ListProjects(_ context.Context, orgID string) ([]*model.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Project
	for _, p := range m.projects {
		if orgID == "" || p.OrganizationID == orgID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CreateInitiative(_ context.Context, in *model.Initiative) error {
	c := *in
	m.initiatives[in.ID] = &c
	return nil
}

func (m *mockStore) GetInitiative(_ context.Context, id string) (*model.Initiative, error) {
	in, ok := m.initiatives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *in
	return &c, nil
}

func (m *mockStore) ListInitiatives(_ context.Context, projectID string) ([]*model.Initiative, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Initiative
	for _, in := range m.initiatives {
		if in.ProjectID == projectID {
			c := *in
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) ListInitiativesByOrganization(_ context.Context, orgID string) ([]*model.Initiative, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Initiative
	for _, in := range m.initiatives {
		if p, ok := m.projects[in.ProjectID]; ok && p.OrganizationID == orgID {
			c := *in
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateInitiativeStatus(_ context.Context, id string, status model.InitiativeStatus) (*model.Initiative, error) {
	in, ok := m.initiatives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	in.Status = status
	c := *in
	return &c, nil
}

func (m *mockStore) AddDependency(_ context.Context, dep *model.Dependency) error {
	for _, d := range m.deps {
		if d.FromInitiativeID == dep.FromInitiativeID && d.ToInitiativeID == dep.ToInitiativeID && d.Type == dep.Type {
			return &model.ConflictError{Entity: "dependency", Message: "already exists"}
		}
	}
	c := *dep
	m.deps[dep.ID] = &c
	return nil
}

func (m *mockStore) RemoveDependency(_ context.Context, id string) (*model.Dependency, error) {
	d, ok := m.deps[id]
	if !ok {
		return nil, nil
	}
	delete(m.deps, id)
	return d, nil
}

func (m *mockStore) ListDependencies(_ context.Context, projectID string) ([]*model.Dependency, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Dependency
	for _, d := range m.deps {
		if from, ok := m.initiatives[d.FromInitiativeID]; ok && from.ProjectID == projectID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CreateTask(_ context.Context, t *model.Task) error {
	c := *t
	m.tasks[t.ID] = &c
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *t
	return &c, nil
}

func (m *mockStore) ListTasks(_ context.Context, f model.TaskFilter) ([]*model.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Task
	for _, t := range m.tasks {
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.ExcludeDone && t.Status == model.TaskDone {
			continue
		}
		if len(f.Status) > 0 {
			found := false
			for _, s := range f.Status {
				if t.Status == s {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateTask(_ context.Context, t *model.Task) error {
	if _, ok := m.tasks[t.ID]; !ok {
		return sql.ErrNoRows
	}
	c := *t
	m.tasks[t.ID] = &c
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	event.ID = int64(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, subjectID string) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range m.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) SetConfig(_ context.Context, config *model.Config) error {
	m.configs[config.Key] = config
	return nil
}

func (m *mockStore) GetConfig(_ context.Context, key string) (*model.Config, error) {
	c, ok := m.configs[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockStore) ListConfigs(_ context.Context, namespace string) ([]*model.Config, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Config
	for k, c := range m.configs {
		if strings.HasPrefix(k, namespace+":") {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *mockStore) ListAllConfigs(_ context.Context) ([]*model.Config, error) {
	var out []*model.Config
	for _, c := range m.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *mockStore) DeleteConfig(_ context.Context, key string) error {
	if _, ok := m.configs[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.configs, key)
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error {
	return nil
}
