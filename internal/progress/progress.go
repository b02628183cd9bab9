// Package progress rolls initiative statuses up into project and portfolio
// progress metrics.
package progress

import (
	"math"
	"sort"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Weights maps each initiative status to its progress figure (0-100).
var Weights = map[model.InitiativeStatus]float64{
	model.InitiativeNotStarted: 0,
	model.InitiativeInProgress: 50,
	model.InitiativeAtRisk:     40,
	model.InitiativeBlocked:    25,
	model.InitiativeDone:       100,
}

// Weight returns the progress figure for a status. Unknown statuses count as 0.
func Weight(s model.InitiativeStatus) float64 {
	return Weights[s]
}

// Calculate rolls up a project's initiatives. The mean is unweighted: every
// initiative counts the same regardless of phase or size. An empty set yields
// zero progress and zero counts.
func Calculate(scopeID string, initiatives []*model.Initiative) *model.ProgressMetrics {
	m := &model.ProgressMetrics{
		ScopeID:     scopeID,
		Phases:      []*model.PhaseProgress{},
		Initiatives: make([]*model.InitiativeProgress, 0, len(initiatives)),
	}
	if len(initiatives) == 0 {
		return m
	}

	phaseSum := map[int]float64{}
	phaseCount := map[int]int{}
	var sum float64
	for _, in := range initiatives {
		w := Weight(in.Status)
		sum += w
		phaseSum[in.Phase] += w
		phaseCount[in.Phase]++
		countStatus(m, in.Status)
		m.Initiatives = append(m.Initiatives, &model.InitiativeProgress{
			ID:       in.ID,
			Title:    in.Title,
			Phase:    in.Phase,
			Status:   in.Status,
			Progress: w,
		})
	}
	m.TotalInitiatives = len(initiatives)
	m.Progress = round1(sum / float64(len(initiatives)))

	for phase, n := range phaseCount {
		m.Phases = append(m.Phases, &model.PhaseProgress{
			Phase:       phase,
			Initiatives: n,
			Progress:    round1(phaseSum[phase] / float64(n)),
		})
	}
	sort.Slice(m.Phases, func(i, j int) bool { return m.Phases[i].Phase < m.Phases[j].Phase })
	sort.SliceStable(m.Initiatives, func(i, j int) bool {
		a, b := m.Initiatives[i], m.Initiatives[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		return a.ID < b.ID
	})
	return m
}

// Portfolio rolls up every project of an organization. byProject maps project
// id to that project's initiatives; projects without initiatives still appear
// in the breakdown with zero progress. The organization-wide figure is the
// mean over all initiatives, not the mean of project means.
func Portfolio(orgID string, projects []*model.Project, byProject map[string][]*model.Initiative) *model.PortfolioMetrics {
	pm := &model.PortfolioMetrics{
		OrganizationID: orgID,
		TotalProjects:  len(projects),
		Projects:       make([]*model.ProgressMetrics, 0, len(projects)),
	}
	var sum float64
	for _, p := range projects {
		ins := byProject[p.ID]
		m := Calculate(p.ID, ins)
		pm.Projects = append(pm.Projects, m)
		pm.TotalInitiatives += m.TotalInitiatives
		pm.AtRiskCount += m.AtRiskCount
		pm.BlockedCount += m.BlockedCount
		pm.DoneCount += m.DoneCount
		for _, in := range ins {
			sum += Weight(in.Status)
		}
	}
	if pm.TotalInitiatives > 0 {
		pm.Progress = round1(sum / float64(pm.TotalInitiatives))
	}
	return pm
}

func countStatus(m *model.ProgressMetrics, s model.InitiativeStatus) {
	switch s {
	case model.InitiativeNotStarted:
		m.NotStartedCount++
	case model.InitiativeInProgress:
		m.InProgressCount++
	case model.InitiativeAtRisk:
		m.AtRiskCount++
	case model.InitiativeBlocked:
		m.BlockedCount++
	case model.InitiativeDone:
		m.DoneCount++
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
