package capacity

import (
	"fmt"
	"sort"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Classify flags every user whose current-week utilization exceeds 1.0, and
// marks the overload sustained when the preceding week was overloaded too.
func Classify(caps []*model.UserCapacity) *model.OverloadResult {
	res := &model.OverloadResult{
		TotalUsersAnalyzed: len(caps),
		OverloadedUsers:    []*model.OverloadedUser{},
		Suggestions:        []*model.Suggestion{},
	}
	for _, uc := range caps {
		if res.CurrentWeek == "" {
			res.CurrentWeek = uc.CurrentWeek
		}
		cur := uc.Current()
		if cur == nil || !cur.Overloaded() {
			continue
		}
		ou := &model.OverloadedUser{
			UserID:        uc.UserID,
			Utilization:   cur.Utilization,
			AssignedHours: cur.AssignedHours,
			CapacityHours: cur.CapacityHours,
		}
		if prev := uc.Previous(); prev != nil && prev.Overloaded() {
			ou.Sustained = true
			res.SustainedOverloads++
		}
		res.OverloadedUsers = append(res.OverloadedUsers, ou)
	}
	sortOverloaded(res.OverloadedUsers)
	res.HasOverloads = len(res.OverloadedUsers) > 0
	res.Status = Status(res)
	return res
}

// Status maps an overload result to a health status: critical when any
// overload is sustained, warning for any overload, healthy otherwise.
func Status(res *model.OverloadResult) model.HealthStatus {
	switch {
	case res.SustainedOverloads > 0:
		return model.HealthCritical
	case res.HasOverloads:
		return model.HealthWarning
	}
	return model.HealthHealthy
}

// Analyze classifies caps and attaches resolution suggestions.
func Analyze(caps []*model.UserCapacity) *model.OverloadResult {
	res := Classify(caps)
	res.Suggestions = SuggestResolutions(res.OverloadedUsers, caps)
	return res
}

// SuggestResolutions proposes one remediation per overloaded user, most
// loaded first. The lowest-priority task of the user's current week goes to
// the least-loaded other user whose current utilization is below 1.0; the
// moved hours are added to that user's projected load before the next
// suggestion is made. When nobody has headroom the suggestion is to push the
// task's due date out by one week.
func SuggestResolutions(overloaded []*model.OverloadedUser, caps []*model.UserCapacity) []*model.Suggestion {
	suggestions := []*model.Suggestion{}
	if len(overloaded) == 0 {
		return suggestions
	}

	byUser := make(map[string]*model.UserCapacity, len(caps))
	projected := make(map[string]float64, len(caps))
	for _, uc := range caps {
		byUser[uc.UserID] = uc
		if cur := uc.Current(); cur != nil {
			projected[uc.UserID] = cur.AssignedHours
		}
	}

	ordered := append([]*model.OverloadedUser(nil), overloaded...)
	sortOverloaded(ordered)

	for _, ou := range ordered {
		uc := byUser[ou.UserID]
		if uc == nil {
			continue
		}
		task := lowestPriority(uc.CurrentTasks)
		if task == nil {
			continue
		}

		candidate, candUtil := leastLoaded(caps, ou.UserID, projected)
		if candidate != "" {
			projected[candidate] += task.EstimatedHours
			suggestions = append(suggestions, &model.Suggestion{
				Type:                 model.SuggestReassign,
				UserID:               ou.UserID,
				TaskID:               task.ID,
				TaskTitle:            task.Title,
				Hours:                task.EstimatedHours,
				CandidateUserID:      candidate,
				CandidateUtilization: candUtil,
				Reason: fmt.Sprintf("%s is at %.0f%% of capacity in %s; %s is least loaded at %.0f%%",
					ou.UserID, ou.Utilization*100, uc.CurrentWeek, candidate, candUtil*100),
			})
			continue
		}

		s := &model.Suggestion{
			Type:         model.SuggestExtendDeadline,
			UserID:       ou.UserID,
			TaskID:       task.ID,
			TaskTitle:    task.Title,
			Hours:        task.EstimatedHours,
			CurrentDueAt: task.DueAt,
			Reason: fmt.Sprintf("%s is at %.0f%% of capacity in %s and no teammate has headroom",
				ou.UserID, ou.Utilization*100, uc.CurrentWeek),
		}
		if task.DueAt != nil {
			d := task.DueAt.AddDate(0, 0, 7)
			s.ProposedDueAt = &d
		} else if cur := uc.Current(); cur != nil {
			d := cur.WeekStart.AddDate(0, 0, 7+4) // Friday of next week
			s.ProposedDueAt = &d
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}

// leastLoaded returns the user other than exclude with the lowest projected
// current utilization below 1.0, ties broken by user id.
func leastLoaded(caps []*model.UserCapacity, exclude string, projected map[string]float64) (string, float64) {
	best, bestUtil := "", 0.0
	for _, uc := range caps {
		if uc.UserID == exclude || uc.CapacityHours <= 0 {
			continue
		}
		util := projected[uc.UserID] / uc.CapacityHours
		if util >= 1.0 {
			continue
		}
		if best == "" || util < bestUtil || (util == bestUtil && uc.UserID < best) {
			best, bestUtil = uc.UserID, util
		}
	}
	return best, bestUtil
}

// lowestPriority picks the task to move: lowest priority first, then the
// latest due date (undated counts as latest), then id.
func lowestPriority(tasks []*model.Task) *model.Task {
	var pick *model.Task
	for _, t := range tasks {
		if pick == nil || lessImportant(t, pick) {
			pick = t
		}
	}
	return pick
}

func lessImportant(a, b *model.Task) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra < rb
	}
	switch {
	case a.DueAt == nil && b.DueAt != nil:
		return true
	case a.DueAt != nil && b.DueAt == nil:
		return false
	case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
		return a.DueAt.After(*b.DueAt)
	}
	return a.ID < b.ID
}

func sortOverloaded(users []*model.OverloadedUser) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Utilization != users[j].Utilization {
			return users[i].Utilization > users[j].Utilization
		}
		return users[i].UserID < users[j].UserID
	})
}
