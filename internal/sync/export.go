// Package sync exports planning data as JSONL snapshots and ships them to
// S3-compatible buckets or git repositories on a schedule.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/store"
)

// Record types written by ExportJSONL, in output order.
const (
	RecordHeader     = "header"
	RecordProject    = "project"
	RecordInitiative = "initiative"
	RecordDependency = "dependency"
	RecordTask       = "task"
	RecordConfig     = "config"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	ProjectCount    int       `json:"project_count"`
	InitiativeCount int       `json:"initiative_count"`
	DependencyCount int       `json:"dependency_count"`
	TaskCount       int       `json:"task_count"`
	ConfigCount     int       `json:"config_count"`
}

// readHeader decodes the header record at the start of an export.
func readHeader(data []byte) (header, bool) {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	var h header
	if err := json.Unmarshal(first, &h); err != nil || h.Type != RecordHeader {
		return header{}, false
	}
	return h, true
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// snapshot is everything one export reads from the store.
type snapshot struct {
	projects     []*model.Project
	initiatives  []*model.Initiative
	dependencies []*model.Dependency
	tasks        []*model.Task
	configs      []*model.Config
}

func readSnapshot(ctx context.Context, s store.Store) (*snapshot, error) {
	snap := &snapshot{}
	var err error
	if snap.projects, err = s.ListProjects(ctx, ""); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.Slice(snap.projects, func(i, j int) bool { return snap.projects[i].ID < snap.projects[j].ID })

	for _, p := range snap.projects {
		initiatives, err := s.ListInitiatives(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list initiatives for %s: %w", p.ID, err)
		}
		snap.initiatives = append(snap.initiatives, initiatives...)

		deps, err := s.ListDependencies(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list dependencies for %s: %w", p.ID, err)
		}
		snap.dependencies = append(snap.dependencies, deps...)
	}
	sort.Slice(snap.initiatives, func(i, j int) bool { return snap.initiatives[i].ID < snap.initiatives[j].ID })
	sort.Slice(snap.dependencies, func(i, j int) bool { return snap.dependencies[i].ID < snap.dependencies[j].ID })

	if snap.tasks, err = s.ListTasks(ctx, model.TaskFilter{}); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sort.Slice(snap.tasks, func(i, j int) bool { return snap.tasks[i].ID < snap.tasks[j].ID })

	if snap.configs, err = s.ListAllConfigs(ctx); err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return snap, nil
}

// ExportJSONL writes every project, initiative, dependency, task and config
// from the store as JSONL to w. Each kind is written in id order after a
// header record carrying the counts.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	snap, err := readSnapshot(ctx, s)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            RecordHeader,
		Timestamp:       time.Now().UTC(),
		ProjectCount:    len(snap.projects),
		InitiativeCount: len(snap.initiatives),
		DependencyCount: len(snap.dependencies),
		TaskCount:       len(snap.tasks),
		ConfigCount:     len(snap.configs),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range snap.projects {
		if err := enc.Encode(record{Type: RecordProject, Data: p}); err != nil {
			return fmt.Errorf("encode project %s: %w", p.ID, err)
		}
	}
	for _, in := range snap.initiatives {
		if err := enc.Encode(record{Type: RecordInitiative, Data: in}); err != nil {
			return fmt.Errorf("encode initiative %s: %w", in.ID, err)
		}
	}
	for _, d := range snap.dependencies {
		if err := enc.Encode(record{Type: RecordDependency, Data: d}); err != nil {
			return fmt.Errorf("encode dependency %s: %w", d.ID, err)
		}
	}
	for _, t := range snap.tasks {
		if err := enc.Encode(record{Type: RecordTask, Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}
	for _, c := range snap.configs {
		if err := enc.Encode(record{Type: RecordConfig, Data: c}); err != nil {
			return fmt.Errorf("encode config %s: %w", c.Key, err)
		}
	}

	return nil
}
