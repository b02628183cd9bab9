package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	name   string
	err    error
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Name() string { return d.name }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)

	dest := &mockDestination{name: "mem"}
	sched := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, discardLogger())
	sched.Start()

	// Several ticks pass with an unchanged plan.
	time.Sleep(180 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("expected 1 write for an unchanged plan, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	if lines := nonEmptyLines(string(data)); len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newMockStore(), nil, time.Minute, nil)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSyncOnce_FailingDestinationDoesNotStopOthers(t *testing.T) {
	ms := newMockStore()
	bad := &mockDestination{name: "bad", err: errors.New("bucket gone")}
	good := &mockDestination{name: "good"}

	sched := NewScheduler(ms, []Destination{bad, good}, time.Minute, discardLogger())
	err := sched.SyncOnce(context.Background())
	if err == nil || !errors.Is(err, bad.err) {
		t.Fatalf("SyncOnce() error = %v, want joined destination error", err)
	}
	if bad.writes.Load() != 1 || good.writes.Load() != 1 {
		t.Fatalf("writes bad=%d good=%d, want 1 each", bad.writes.Load(), good.writes.Load())
	}
}

func TestSyncOnce_ExportFailureSkipsDestinations(t *testing.T) {
	ms := newMockStore()
	ms.taskErr = errors.New("db down")
	dest := &mockDestination{name: "mem"}

	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())
	if err := sched.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected export error")
	}
	if dest.writes.Load() != 0 {
		t.Fatalf("destination written %d times after failed export", dest.writes.Load())
	}
}

func TestSyncOnce_RewritesOnlyAfterChange(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)
	dest := &mockDestination{name: "mem"}
	sched := NewScheduler(ms, []Destination{dest}, time.Minute, discardLogger())
	ctx := context.Background()

	for range 3 {
		if err := sched.SyncOnce(ctx); err != nil {
			t.Fatalf("SyncOnce() error = %v", err)
		}
	}
	if got := dest.writes.Load(); got != 1 {
		t.Fatalf("writes = %d after unchanged syncs, want 1", got)
	}

	ms.tasks = append(ms.tasks, &model.Task{ID: "tk-9", ProjectID: "pj-1", Title: "Late task", Status: model.TaskTodo})
	if err := sched.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("writes = %d after a plan change, want 2", got)
	}
}

func TestSyncOnce_RetriesFailedDestination(t *testing.T) {
	ms := newMockStore()
	seedStore(ms)
	flaky := &mockDestination{name: "flaky", err: errors.New("timeout")}
	sched := NewScheduler(ms, []Destination{flaky}, time.Minute, discardLogger())
	ctx := context.Background()

	if err := sched.SyncOnce(ctx); err == nil || !strings.Contains(err.Error(), "flaky") {
		t.Fatalf("SyncOnce() error = %v, want failure naming the destination", err)
	}
	flaky.err = nil
	if err := sched.SyncOnce(ctx); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if got := flaky.writes.Load(); got != 2 {
		t.Fatalf("writes = %d, want a retry after failure", got)
	}
}
