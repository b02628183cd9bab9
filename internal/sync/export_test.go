package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/kplan/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != RecordHeader || h.ProjectCount != 0 || h.TaskCount != 0 || h.ConfigCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

// seedStore fills ms with two projects whose rows are inserted out of id order.
func seedStore(ms *mockStore) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	ms.projects = []*model.Project{
		{ID: "pj-zzz", OrganizationID: "org-1", Name: "Later", CreatedAt: now},
		{ID: "pj-aaa", OrganizationID: "org-1", Name: "Sooner", CreatedAt: now},
	}
	ms.initiatives["pj-zzz"] = []*model.Initiative{
		{ID: "in-c", ProjectID: "pj-zzz", Title: "C", Phase: 1, Status: model.InitiativeNotStarted, CreatedAt: now, UpdatedAt: now},
	}
	ms.initiatives["pj-aaa"] = []*model.Initiative{
		{ID: "in-b", ProjectID: "pj-aaa", Title: "B", Phase: 2, Status: model.InitiativeBlocked, CreatedAt: now, UpdatedAt: now},
		{ID: "in-a", ProjectID: "pj-aaa", Title: "A", Phase: 1, Status: model.InitiativeInProgress, CreatedAt: now, UpdatedAt: now},
	}
	ms.deps["pj-aaa"] = []*model.Dependency{
		{ID: "dp-1", FromInitiativeID: "in-a", ToInitiativeID: "in-b", Type: model.DepBlocks, CreatedAt: now},
	}
	ms.tasks = []*model.Task{
		{ID: "tk-2", ProjectID: "pj-aaa", AssigneeID: "bob", Title: "Second", EstimatedHours: 3, Status: model.TaskTodo, Priority: model.PriorityNormal, CreatedAt: now, UpdatedAt: now},
		{ID: "tk-1", ProjectID: "pj-aaa", AssigneeID: "alice", Title: "First", EstimatedHours: 8, Status: model.TaskInProgress, Priority: model.PriorityHigh, CreatedAt: now, UpdatedAt: now},
	}
	ms.configs = []*model.Config{
		{Key: "capacity:alice", Value: json.RawMessage(`{"hours_per_week":30}`), CreatedAt: now, UpdatedAt: now},
	}
}

func TestExportJSONL_AllRecords(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 projects + 3 initiatives + 1 dependency + 2 tasks + 1 config
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.ProjectCount != 2 || h.InitiativeCount != 3 || h.DependencyCount != 1 || h.TaskCount != 2 || h.ConfigCount != 1 {
		t.Fatalf("header counts: %+v", h)
	}

	type line struct {
		Type string `json:"type"`
		Data struct {
			ID  string `json:"id"`
			Key string `json:"key"`
		} `json:"data"`
	}
	var got []string
	for _, l := range lines[1:] {
		var rec line
		if err := json.Unmarshal([]byte(l), &rec); err != nil {
			t.Fatalf("unmarshal %q: %v", l, err)
		}
		id := rec.Data.ID
		if rec.Type == RecordConfig {
			id = rec.Data.Key
		}
		got = append(got, rec.Type+":"+id)
	}

	want := []string{
		"project:pj-aaa", "project:pj-zzz",
		"initiative:in-a", "initiative:in-b", "initiative:in-c",
		"dependency:dp-1",
		"task:tk-1", "task:tk-2",
		"config:capacity:alice",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("records =\n  %v\nwant\n  %v", got, want)
	}
}

func TestExportJSONL_TaskFieldsRoundTrip(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, l := range nonEmptyLines(buf.String()) {
		var rec struct {
			Type string     `json:"type"`
			Data model.Task `json:"data"`
		}
		if err := json.Unmarshal([]byte(l), &rec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if rec.Type == RecordTask && rec.Data.ID == "tk-1" {
			if rec.Data.AssigneeID != "alice" || rec.Data.EstimatedHours != 8 || rec.Data.Priority != model.PriorityHigh {
				t.Fatalf("task tk-1 = %+v", rec.Data)
			}
			return
		}
	}
	t.Fatal("task tk-1 not exported")
}

func TestExportJSONL_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.taskErr = errors.New("connection reset")

	var buf bytes.Buffer
	err := ExportJSONL(context.Background(), ms, &buf)
	if err == nil || !strings.Contains(err.Error(), "list tasks") {
		t.Fatalf("error = %v, want list tasks failure", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written: %q", buf.String())
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

func TestObjectMetadata(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	md := objectMetadata(buf.Bytes())
	want := map[string]string{"kplan-version": "1", "kplan-projects": "2", "kplan-initiatives": "3", "kplan-tasks": "2"}
	for k, v := range want {
		if md[k] != v {
			t.Errorf("metadata[%s] = %q, want %q", k, md[k], v)
		}
	}
	if objectMetadata([]byte("garbage\n")) != nil {
		t.Error("metadata for an export without a header should be nil")
	}
}
