package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/events"
	"github.com/alfredjeanlab/kplan/internal/model"
)

// testNow is a Wednesday in ISO week 2026-W42.
var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestServer() (*PlanServer, *mockStore, http.Handler) {
	ms := newMockStore()
	s := NewPlanServer(ms, events.Discard, capacity.NewCalculator(capacity.Ceilings{DefaultHoursPerWeek: 40}))
	s.now = func() time.Time { return testNow }
	return s, ms, s.NewHTTPHandler("")
}

// testCtx creates a fresh PlanServer with a mock store and background context.
func testCtx(t *testing.T) (*PlanServer, *mockStore, context.Context) {
	t.Helper()
	srv, ms, _ := newTestServer()
	return srv, ms, context.Background()
}

func seedProject(ms *mockStore, id, org string) {
	ms.projects[id] = &model.Project{ID: id, OrganizationID: org, Name: id}
}

func seedInitiative(ms *mockStore, id, project string, status model.InitiativeStatus) {
	ms.initiatives[id] = &model.Initiative{ID: id, ProjectID: project, Title: id, Phase: 1, Status: status}
}

func seedDep(ms *mockStore, id, from, to string) {
	ms.deps[id] = &model.Dependency{ID: id, FromInitiativeID: from, ToInitiativeID: to, Type: model.DepBlocks}
}

func seedTask(ms *mockStore, id, project, assignee string, hours float64, due *time.Time, p model.Priority) {
	ms.tasks[id] = &model.Task{
		ID: id, ProjectID: project, AssigneeID: assignee, Title: id,
		EstimatedHours: hours, DueAt: due, Status: model.TaskTodo, Priority: p,
	}
}

func day(offset int) *time.Time {
	d := testNow.AddDate(0, 0, offset)
	return &d
}

// requireEvent asserts exactly n events were recorded, with the last having the given topic.
func requireEvent(t *testing.T, ms *mockStore, n int, topic string) {
	t.Helper()
	if len(ms.events) != n {
		t.Fatalf("expected %d event(s), got %d", n, len(ms.events))
	}
	if ms.events[n-1].Topic != topic {
		t.Fatalf("expected topic=%q, got %q", topic, ms.events[n-1].Topic)
	}
}

func requireErrorType[T error](t *testing.T, err error) {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %v", target, err)
	}
}

func TestBuildGraph_ReportsDeadlocks(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	for _, id := range []string{"in-a", "in-b", "in-c", "in-d"} {
		seedInitiative(ms, id, "pj-1", model.InitiativeInProgress)
	}
	seedDep(ms, "dp-1", "in-a", "in-b")
	seedDep(ms, "dp-2", "in-b", "in-c")
	seedDep(ms, "dp-3", "in-c", "in-a")
	seedDep(ms, "dp-4", "in-c", "in-d")
	ms.deps["dp-5"] = &model.Dependency{ID: "dp-5", FromInitiativeID: "in-a", ToInitiativeID: "in-d", Type: model.DepRelates}

	resp, err := srv.BuildGraph(ctx, "pj-1")
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	want := [][]string{{"in-a", "in-b", "in-c"}}
	if !reflect.DeepEqual(resp.Deadlocks, want) {
		t.Errorf("deadlocks = %v, want %v", resp.Deadlocks, want)
	}
	if resp.Stats.TotalInitiatives != 4 || resp.Stats.BlockingEdges != 4 || resp.Stats.RelatesEdges != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestBuildGraph_NotFound(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-empty", "org-1")

	_, err := srv.BuildGraph(ctx, "pj-empty")
	requireErrorType[*model.NotFoundError](t, err)

	_, err = srv.BuildGraph(ctx, "pj-missing")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestAddDependency(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedProject(ms, "pj-2", "org-1")
	seedInitiative(ms, "in-a", "pj-1", model.InitiativeNotStarted)
	seedInitiative(ms, "in-b", "pj-1", model.InitiativeNotStarted)
	seedInitiative(ms, "in-x", "pj-2", model.InitiativeNotStarted)

	dep, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-b", CreatedBy: "alice"})
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if dep.ID == "" || dep.Type != model.DepBlocks {
		t.Errorf("dependency = %+v, want generated id and blocks type", dep)
	}
	requireEvent(t, ms, 1, events.TopicDependencyAdded)

	t.Run("Duplicate", func(t *testing.T) {
		_, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-b", Type: model.DepBlocks})
		requireErrorType[*model.ConflictError](t, err)
	})
	t.Run("SamePairOtherType", func(t *testing.T) {
		if _, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-b", Type: model.DepRelates}); err != nil {
			t.Fatalf("AddDependency relates: %v", err)
		}
	})
	t.Run("ClosesCycle", func(t *testing.T) {
		if _, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-b", ToInitiativeID: "in-a"}); err != nil {
			t.Fatalf("AddDependency closing a cycle: %v", err)
		}
		resp, err := srv.BuildGraph(ctx, "pj-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Deadlocks) != 1 {
			t.Errorf("deadlocks = %v, want one", resp.Deadlocks)
		}
	})
	t.Run("CrossProject", func(t *testing.T) {
		_, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-x"})
		requireErrorType[*model.ValidationError](t, err)
	})
	t.Run("UnknownInitiative", func(t *testing.T) {
		_, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-zzz"})
		requireErrorType[*model.NotFoundError](t, err)
	})
	t.Run("InvalidType", func(t *testing.T) {
		_, err := srv.AddDependency(ctx, DependencyInput{FromInitiativeID: "in-a", ToInitiativeID: "in-b", Type: "depends"})
		requireErrorType[*model.ValidationError](t, err)
	})
	t.Run("MissingIDs", func(t *testing.T) {
		_, err := srv.AddDependency(ctx, DependencyInput{})
		requireErrorType[*model.ValidationError](t, err)
	})
}

func TestRemoveDependency_Idempotent(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedInitiative(ms, "in-a", "pj-1", model.InitiativeNotStarted)
	seedInitiative(ms, "in-b", "pj-1", model.InitiativeNotStarted)
	seedDep(ms, "dp-1", "in-a", "in-b")

	removed, err := srv.RemoveDependency(ctx, "dp-1", "alice")
	if err != nil || !removed {
		t.Fatalf("first remove = %v, %v; want true, nil", removed, err)
	}
	removed, err = srv.RemoveDependency(ctx, "dp-1", "alice")
	if err != nil || removed {
		t.Fatalf("second remove = %v, %v; want false, nil", removed, err)
	}
	requireEvent(t, ms, 1, events.TopicDependencyRemoved)
}

func TestExplainBlocker(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedInitiative(ms, "in-root", "pj-1", model.InitiativeInProgress)
	seedInitiative(ms, "in-mid", "pj-1", model.InitiativeBlocked)
	seedInitiative(ms, "in-target", "pj-1", model.InitiativeBlocked)
	seedInitiative(ms, "in-done", "pj-1", model.InitiativeDone)
	seedDep(ms, "dp-1", "in-root", "in-mid")
	seedDep(ms, "dp-2", "in-mid", "in-target")
	seedDep(ms, "dp-3", "in-done", "in-target")

	exp, err := srv.ExplainBlocker(ctx, ObjectInitiative, "in-target")
	if err != nil {
		t.Fatalf("ExplainBlocker: %v", err)
	}
	if exp.Kind != model.ExplanationChain {
		t.Fatalf("kind = %q, want chain", exp.Kind)
	}
	if want := [][]string{{"in-root", "in-mid", "in-target"}}; !reflect.DeepEqual(exp.Chains, want) {
		t.Errorf("chains = %v, want %v", exp.Chains, want)
	}

	_, err = srv.ExplainBlocker(ctx, "task", "in-target")
	requireErrorType[*model.ValidationError](t, err)

	_, err = srv.ExplainBlocker(ctx, ObjectInitiative, "in-missing")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestProjectProgress(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedInitiative(ms, "in-1", "pj-1", model.InitiativeDone)
	seedInitiative(ms, "in-2", "pj-1", model.InitiativeInProgress)
	seedInitiative(ms, "in-3", "pj-1", model.InitiativeAtRisk)

	m, err := srv.ProjectProgress(ctx, "pj-1")
	if err != nil {
		t.Fatalf("ProjectProgress: %v", err)
	}
	// (100 + 50 + 40) / 3
	if m.Progress != 63.3 {
		t.Errorf("progress = %v, want 63.3", m.Progress)
	}
	if m.AtRiskCount != 1 || m.DoneCount != 1 {
		t.Errorf("counts = at_risk %d done %d", m.AtRiskCount, m.DoneCount)
	}

	_, err = srv.ProjectProgress(ctx, "pj-missing")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestPortfolioMetrics(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedProject(ms, "pj-2", "org-1")
	seedProject(ms, "pj-other", "org-2")
	seedInitiative(ms, "in-1", "pj-1", model.InitiativeDone)
	seedInitiative(ms, "in-2", "pj-2", model.InitiativeNotStarted)
	seedInitiative(ms, "in-3", "pj-2", model.InitiativeNotStarted)
	seedInitiative(ms, "in-4", "pj-other", model.InitiativeDone)

	m, err := srv.PortfolioMetrics(ctx, "org-1")
	if err != nil {
		t.Fatalf("PortfolioMetrics: %v", err)
	}
	if m.TotalProjects != 2 || m.TotalInitiatives != 3 {
		t.Errorf("totals = %d projects, %d initiatives", m.TotalProjects, m.TotalInitiatives)
	}
	// Mean over initiatives, not over project means.
	if m.Progress != 33.3 {
		t.Errorf("progress = %v, want 33.3", m.Progress)
	}

	empty, err := srv.PortfolioMetrics(ctx, "org-none")
	if err != nil {
		t.Fatalf("PortfolioMetrics empty org: %v", err)
	}
	if empty.TotalInitiatives != 0 || empty.Progress != 0 {
		t.Errorf("empty org metrics = %+v", empty)
	}
}

func TestUserCapacity_AppliesStoredOverride(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedTask(ms, "tk-1", "pj-1", "alice", 30, day(1), model.PriorityNormal)
	seedTask(ms, "tk-2", "pj-1", "bob", 30, day(1), model.PriorityNormal)

	if err := srv.SetCapacity(ctx, "alice", 20, "admin"); err != nil {
		t.Fatalf("SetCapacity: %v", err)
	}
	requireEvent(t, ms, 1, events.TopicCapacityUpdated)

	uc, err := srv.UserCapacity(ctx, "alice", "pj-1")
	if err != nil {
		t.Fatalf("UserCapacity: %v", err)
	}
	cur := uc.Current()
	if uc.CurrentWeek != "2026-W42" || cur.AssignedHours != 30 || cur.CapacityHours != 20 || cur.Utilization != 1.5 {
		t.Errorf("current bucket = %+v (week %s)", cur, uc.CurrentWeek)
	}
	if len(uc.Buckets) != 1+1+capacity.DefaultHorizonWeeks {
		t.Errorf("buckets = %d", len(uc.Buckets))
	}

	_, err = srv.UserCapacity(ctx, "", "")
	requireErrorType[*model.ValidationError](t, err)
	_, err = srv.UserCapacity(ctx, "alice", "pj-missing")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestUserCapacity_MalformedOverrideIgnored(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	ms.configs["capacity:alice"] = &model.Config{Key: "capacity:alice", Value: json.RawMessage(`"lots"`)}

	uc, err := srv.UserCapacity(ctx, "alice", "")
	if err != nil {
		t.Fatalf("UserCapacity: %v", err)
	}
	if uc.CapacityHours != 40 {
		t.Errorf("capacity = %v, want default 40", uc.CapacityHours)
	}
}

func TestDetectOverloads(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedTask(ms, "tk-big", "pj-1", "alice", 40, day(0), model.PriorityUrgent)
	seedTask(ms, "tk-small", "pj-1", "alice", 8, day(1), model.PriorityNormal)
	seedTask(ms, "tk-bob", "pj-1", "bob", 10, day(1), model.PriorityNormal)
	seedTask(ms, "tk-other", "pj-2", "bob", 100, day(1), model.PriorityNormal)

	res, err := srv.DetectOverloads(ctx, "pj-1")
	if err != nil {
		t.Fatalf("DetectOverloads: %v", err)
	}
	if res.TotalUsersAnalyzed != 2 || !res.HasOverloads || res.Status != model.HealthWarning {
		t.Fatalf("result = %+v", res)
	}
	if len(res.OverloadedUsers) != 1 || res.OverloadedUsers[0].UserID != "alice" {
		t.Fatalf("overloaded = %+v", res.OverloadedUsers)
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("suggestions = %+v", res.Suggestions)
	}
	sg := res.Suggestions[0]
	if sg.Type != model.SuggestReassign || sg.TaskID != "tk-small" || sg.CandidateUserID != "bob" {
		t.Errorf("suggestion = %+v", sg)
	}
}

func TestDetectOverloads_Sustained(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedTask(ms, "tk-now", "pj-1", "alice", 45, day(0), model.PriorityNormal)
	seedTask(ms, "tk-last", "pj-1", "alice", 45, day(-7), model.PriorityNormal)

	res, err := srv.DetectOverloads(ctx, "pj-1")
	if err != nil {
		t.Fatalf("DetectOverloads: %v", err)
	}
	if res.SustainedOverloads != 1 || res.Status != model.HealthCritical {
		t.Errorf("result = %+v", res)
	}
	// Nobody else to take the work.
	if len(res.Suggestions) != 1 || res.Suggestions[0].Type != model.SuggestExtendDeadline {
		t.Errorf("suggestions = %+v", res.Suggestions)
	}
}

func TestDetectOverloads_NoTasks(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")

	res, err := srv.DetectOverloads(ctx, "pj-1")
	if err != nil {
		t.Fatalf("DetectOverloads: %v", err)
	}
	if res.TotalUsersAnalyzed != 0 || res.HasOverloads || res.Status != model.HealthHealthy {
		t.Errorf("result = %+v", res)
	}
	if res.CurrentWeek != "2026-W42" {
		t.Errorf("current week = %q", res.CurrentWeek)
	}
}

func TestHealthSnapshot(t *testing.T) {
	for _, tc := range []struct {
		name string
		seed func(ms *mockStore)
		want model.HealthStatus
	}{
		{"Healthy", func(ms *mockStore) {
			seedInitiative(ms, "in-1", "pj-1", model.InitiativeInProgress)
		}, model.HealthHealthy},
		{"AtRiskWarns", func(ms *mockStore) {
			seedInitiative(ms, "in-1", "pj-1", model.InitiativeAtRisk)
		}, model.HealthWarning},
		{"OverloadWarns", func(ms *mockStore) {
			seedTask(ms, "tk-1", "pj-1", "alice", 50, day(0), model.PriorityNormal)
		}, model.HealthWarning},
		{"DeadlockIsCritical", func(ms *mockStore) {
			seedInitiative(ms, "in-1", "pj-1", model.InitiativeInProgress)
			seedInitiative(ms, "in-2", "pj-1", model.InitiativeInProgress)
			seedDep(ms, "dp-1", "in-1", "in-2")
			seedDep(ms, "dp-2", "in-2", "in-1")
		}, model.HealthCritical},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, ms, ctx := testCtx(t)
			seedProject(ms, "pj-1", "org-1")
			tc.seed(ms)
			snap, err := srv.HealthSnapshot(ctx, "pj-1")
			if err != nil {
				t.Fatalf("HealthSnapshot: %v", err)
			}
			if snap.Status != tc.want {
				t.Errorf("status = %q, want %q", snap.Status, tc.want)
			}
		})
	}
}

func TestCreateInitiative_Defaults(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")

	in, err := srv.CreateInitiative(ctx, &model.Initiative{ProjectID: "pj-1", Title: "  Launch  ", CreatedBy: "alice"})
	if err != nil {
		t.Fatalf("CreateInitiative: %v", err)
	}
	if in.Status != model.InitiativeNotStarted || in.Phase != 1 || in.Title != "Launch" {
		t.Errorf("initiative = %+v", in)
	}
	requireEvent(t, ms, 1, events.TopicInitiativeCreated)

	_, err = srv.CreateInitiative(ctx, &model.Initiative{ProjectID: "pj-missing", Title: "x"})
	requireErrorType[*model.NotFoundError](t, err)
}

func TestUpdateInitiativeStatus(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedInitiative(ms, "in-1", "pj-1", model.InitiativeNotStarted)

	in, err := srv.UpdateInitiativeStatus(ctx, "in-1", model.InitiativeAtRisk, "alice")
	if err != nil {
		t.Fatalf("UpdateInitiativeStatus: %v", err)
	}
	if in.Status != model.InitiativeAtRisk {
		t.Errorf("status = %q", in.Status)
	}
	requireEvent(t, ms, 1, events.TopicInitiativeStatusChanged)

	// Same status again records nothing.
	if _, err := srv.UpdateInitiativeStatus(ctx, "in-1", model.InitiativeAtRisk, "alice"); err != nil {
		t.Fatal(err)
	}
	if len(ms.events) != 1 {
		t.Errorf("events = %d, want 1", len(ms.events))
	}

	_, err = srv.UpdateInitiativeStatus(ctx, "in-1", "paused", "alice")
	requireErrorType[*model.ValidationError](t, err)
	_, err = srv.UpdateInitiativeStatus(ctx, "in-missing", model.InitiativeDone, "alice")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestUpdateTask(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")
	seedTask(ms, "tk-1", "pj-1", "alice", 8, day(2), model.PriorityNormal)

	bob := "bob"
	task, err := srv.UpdateTask(ctx, "tk-1", &model.TaskUpdate{AssigneeID: &bob, ClearDueAt: true}, "alice")
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.AssigneeID != "bob" || task.DueAt != nil {
		t.Errorf("task = %+v", task)
	}
	requireEvent(t, ms, 1, events.TopicTaskUpdated)

	negative := -1.0
	_, err = srv.UpdateTask(ctx, "tk-1", &model.TaskUpdate{EstimatedHours: &negative}, "alice")
	requireErrorType[*model.ValidationError](t, err)
	if ms.tasks["tk-1"].EstimatedHours != 8 {
		t.Errorf("invalid update was persisted")
	}

	_, err = srv.UpdateTask(ctx, "tk-missing", &model.TaskUpdate{AssigneeID: &bob}, "alice")
	requireErrorType[*model.NotFoundError](t, err)
}

func TestCreateTask_Defaults(t *testing.T) {
	srv, ms, ctx := testCtx(t)
	seedProject(ms, "pj-1", "org-1")

	task, err := srv.CreateTask(ctx, &model.Task{ProjectID: "pj-1", Title: "Write docs", EstimatedHours: 3})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != model.TaskTodo || task.Priority != model.PriorityNormal || task.ID == "" {
		t.Errorf("task = %+v", task)
	}
	requireEvent(t, ms, 1, events.TopicTaskCreated)
}

func TestSetCapacity_Validation(t *testing.T) {
	srv, _, ctx := testCtx(t)
	requireErrorType[*model.ValidationError](t, srv.SetCapacity(ctx, "alice", 0, ""))
	requireErrorType[*model.ValidationError](t, srv.SetCapacity(ctx, "", 10, ""))
}
