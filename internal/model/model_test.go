package model

import (
	"errors"
	"testing"
	"time"
)

func TestInitiativeStatus_IsValid(t *testing.T) {
	for _, tc := range []struct {
		status InitiativeStatus
		want   bool
	}{
		{InitiativeNotStarted, true},
		{InitiativeInProgress, true},
		{InitiativeAtRisk, true},
		{InitiativeBlocked, true},
		{InitiativeDone, true},
		{InitiativeStatus(""), false},
		{InitiativeStatus("NOT_STARTED"), false},
	} {
		if got := tc.status.IsValid(); got != tc.want {
			t.Errorf("InitiativeStatus(%q).IsValid() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestDependencyType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		typ  DependencyType
		want bool
	}{
		{DepBlocks, true},
		{DepRelates, true},
		{DependencyType(""), false},
		{DependencyType("related"), false},
	} {
		if got := tc.typ.IsValid(); got != tc.want {
			t.Errorf("DependencyType(%q).IsValid() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestTaskStatus_IsValid(t *testing.T) {
	for _, tc := range []struct {
		status TaskStatus
		want   bool
	}{
		{TaskTodo, true},
		{TaskInProgress, true},
		{TaskBlocked, true},
		{TaskDone, true},
		{TaskStatus("open"), false},
	} {
		if got := tc.status.IsValid(); got != tc.want {
			t.Errorf("TaskStatus(%q).IsValid() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestPriority_Rank(t *testing.T) {
	if !(PriorityNormal.Rank() < PriorityHigh.Rank() && PriorityHigh.Rank() < PriorityUrgent.Rank()) {
		t.Errorf("ranks out of order: normal=%d high=%d urgent=%d",
			PriorityNormal.Rank(), PriorityHigh.Rank(), PriorityUrgent.Rank())
	}
	if got := Priority("bogus").Rank(); got != 0 {
		t.Errorf("Priority(bogus).Rank() = %d, want 0", got)
	}
}

func TestUserCapacity_CurrentAndPrevious(t *testing.T) {
	uc := &UserCapacity{
		CurrentIndex: 1,
		Buckets: []*CapacitySnapshot{
			{Week: "2026-W41", Utilization: 1.2},
			{Week: "2026-W42", Utilization: 0.5},
		},
	}
	if got := uc.Current(); got == nil || got.Week != "2026-W42" {
		t.Errorf("Current() = %+v, want 2026-W42", got)
	}
	if got := uc.Previous(); got == nil || got.Week != "2026-W41" {
		t.Errorf("Previous() = %+v, want 2026-W41", got)
	}
	if !uc.Previous().Overloaded() || uc.Current().Overloaded() {
		t.Error("Overloaded() should be true only above 1.0")
	}

	uc.CurrentIndex = 0
	if uc.Previous() != nil {
		t.Error("Previous() should be nil at index 0")
	}
}

func TestErrors(t *testing.T) {
	var err error = &NotFoundError{Entity: "initiative", ID: "in-1"}
	if got, want := err.Error(), `initiative "in-1" not found`; got != want {
		t.Errorf("NotFoundError.Error() = %q, want %q", got, want)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "in-1" {
		t.Errorf("errors.As(NotFoundError) failed: %v", err)
	}

	err = &ConflictError{Entity: "dependency", Message: "in-1 blocks in-2 already exists"}
	if got, want := err.Error(), "dependency: in-1 blocks in-2 already exists"; got != want {
		t.Errorf("ConflictError.Error() = %q, want %q", got, want)
	}
}

func TestTaskUpdate_Apply(t *testing.T) {
	tk := &Task{ID: "tk-1", Title: "Old", EstimatedHours: 4, Status: TaskTodo, Priority: PriorityNormal}
	bob := "bob"
	hours := 6.0
	done := TaskDone
	changes := (&TaskUpdate{AssigneeID: &bob, EstimatedHours: &hours, Status: &done}).Apply(tk)

	if tk.AssigneeID != "bob" || tk.EstimatedHours != 6 || tk.Status != TaskDone || tk.Title != "Old" {
		t.Errorf("applied task = %+v", tk)
	}
	if len(changes) != 3 {
		t.Errorf("changes = %v, want 3 entries", changes)
	}
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	ev, err := NewEvent("kplan.capacity.updated", "alice", "bob", map[string]float64{"hours_per_week": 32}, at)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if ev.Topic != "kplan.capacity.updated" || ev.SubjectID != "alice" || ev.Actor != "bob" || !ev.CreatedAt.Equal(at) {
		t.Errorf("event = %+v", ev)
	}
	if string(ev.Payload) != `{"hours_per_week":32}` {
		t.Errorf("payload = %s", ev.Payload)
	}

	if _, err := NewEvent("kplan.task.updated", "tk-1", "", make(chan int), at); err == nil {
		t.Error("expected an error for an unencodable payload")
	}
}

func TestCapacityConfig_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cfg, err := NewCapacityConfig("alice", 32, at)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Key != "capacity:alice" || !cfg.UpdatedAt.Equal(at) {
		t.Errorf("config = %+v", cfg)
	}
	user, hours, err := cfg.CapacityOverride()
	if err != nil {
		t.Fatal(err)
	}
	if user != "alice" || hours != 32 {
		t.Errorf("CapacityOverride() = %q, %v", user, hours)
	}
}

func TestConfig_CapacityOverrideRejects(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"other namespace": {Key: "sync:git", Value: []byte(`{"hours_per_week":10}`)},
		"empty user":      {Key: "capacity:", Value: []byte(`{"hours_per_week":10}`)},
		"bad json":        {Key: "capacity:bob", Value: []byte(`not json`)},
	} {
		if _, _, err := cfg.CapacityOverride(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
