// Package capacity computes per-user workload per ISO week and classifies
// overload across the users of a project.
package capacity

import (
	"fmt"
	"time"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Default analysis window around the current week.
const (
	DefaultLookbackWeeks = 1
	DefaultHorizonWeeks  = 4
)

// Calculator buckets a user's open tasks into ISO weeks and compares each
// bucket against the user's weekly ceiling. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	Ceilings      Ceilings
	LookbackWeeks int
	HorizonWeeks  int
}

// NewCalculator returns a Calculator with the default window.
func NewCalculator(c Ceilings) *Calculator {
	return &Calculator{
		Ceilings:      c,
		LookbackWeeks: DefaultLookbackWeeks,
		HorizonWeeks:  DefaultHorizonWeeks,
	}
}

// Calculate returns userID's load across the window around now.
//
// Done tasks and tasks assigned to someone else are ignored. A task lands in
// the week of its due date; undated tasks land in the current week, tasks due
// before the window land in its first bucket, and tasks due after the window
// are summed into LaterHours. Every bucket of the window is present even when
// it has no tasks.
func (c *Calculator) Calculate(userID string, tasks []*model.Task, now time.Time) *model.UserCapacity {
	lookback, horizon := c.LookbackWeeks, c.HorizonWeeks
	if lookback < 1 {
		lookback = 1 // the preceding week is needed to detect sustained overload
	}
	if horizon < 0 {
		horizon = 0
	}
	ceiling := c.Ceilings.For(userID)
	current := WeekStart(now)
	first := current.AddDate(0, 0, -7*lookback)

	uc := &model.UserCapacity{
		UserID:        userID,
		CurrentWeek:   WeekKey(current),
		CurrentIndex:  lookback,
		CapacityHours: ceiling,
		Buckets:       make([]*model.CapacitySnapshot, lookback+1+horizon),
	}
	for i := range uc.Buckets {
		start := first.AddDate(0, 0, 7*i)
		uc.Buckets[i] = &model.CapacitySnapshot{
			Week:          WeekKey(start),
			WeekStart:     start,
			CapacityHours: ceiling,
		}
	}

	for _, t := range tasks {
		if t.Status == model.TaskDone || t.AssigneeID != userID {
			continue
		}
		idx := uc.CurrentIndex
		if t.DueAt != nil {
			idx = weeksBetween(first, WeekStart(*t.DueAt))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(uc.Buckets) {
			uc.LaterHours += t.EstimatedHours
			continue
		}
		b := uc.Buckets[idx]
		b.AssignedHours += t.EstimatedHours
		b.TaskCount++
		if idx == uc.CurrentIndex {
			uc.CurrentTasks = append(uc.CurrentTasks, t)
		}
	}

	for _, b := range uc.Buckets {
		b.Utilization = b.AssignedHours / ceiling
	}
	return uc
}

// WeekStart returns midnight UTC of the Monday starting t's ISO week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// WeekKey formats t's ISO week, e.g. "2026-W42".
func WeekKey(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// weeksBetween counts whole weeks from one week start to another.
func weeksBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return -((-days + 6) / 7)
	}
	return days / 7
}
