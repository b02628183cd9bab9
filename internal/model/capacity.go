package model

import "time"

// CapacitySnapshot is one user's load for one ISO week.
type CapacitySnapshot struct {
	Week          string    `json:"week"`
	WeekStart     time.Time `json:"week_start"`
	AssignedHours float64   `json:"assigned_hours"`
	CapacityHours float64   `json:"capacity_hours"`
	Utilization   float64   `json:"utilization"`
	TaskCount     int       `json:"task_count"`
}

// Overloaded reports whether assigned hours exceed the weekly ceiling.
func (s *CapacitySnapshot) Overloaded() bool {
	return s.Utilization > 1.0
}

// UserCapacity is a user's load across the analysis window.
// Buckets are ordered oldest first; CurrentIndex points at the bucket
// containing the analysis time.
type UserCapacity struct {
	UserID        string              `json:"user_id"`
	ProjectID     string              `json:"project_id,omitempty"`
	CurrentWeek   string              `json:"current_week"`
	CurrentIndex  int                 `json:"current_index"`
	CapacityHours float64             `json:"capacity_hours"`
	Buckets       []*CapacitySnapshot `json:"buckets"`
	LaterHours    float64             `json:"later_hours"`

	// Open tasks counted in the current bucket, used for suggestions.
	CurrentTasks []*Task `json:"-"`
}

// Current returns the bucket containing the analysis time, or nil.
func (u *UserCapacity) Current() *CapacitySnapshot {
	if u.CurrentIndex < 0 || u.CurrentIndex >= len(u.Buckets) {
		return nil
	}
	return u.Buckets[u.CurrentIndex]
}

// Previous returns the bucket immediately before the current one, or nil.
func (u *UserCapacity) Previous() *CapacitySnapshot {
	i := u.CurrentIndex - 1
	if i < 0 || i >= len(u.Buckets) {
		return nil
	}
	return u.Buckets[i]
}

// HealthStatus is the traffic-light summary of an analysis.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// String returns the string representation of the status.
func (h HealthStatus) String() string {
	return string(h)
}

// OverloadedUser is a user whose current-week load exceeds capacity.
type OverloadedUser struct {
	UserID        string  `json:"user_id"`
	Utilization   float64 `json:"utilization"`
	AssignedHours float64 `json:"assigned_hours"`
	CapacityHours float64 `json:"capacity_hours"`
	Sustained     bool    `json:"sustained"`
}

// SuggestionType names a remediation for an overloaded user.
type SuggestionType string

const (
	SuggestReassign       SuggestionType = "reassign"
	SuggestExtendDeadline SuggestionType = "extend_deadline"
)

// Suggestion is a proposed remediation. Candidate fields are set for
// reassignments, due-date fields for deadline extensions.
type Suggestion struct {
	Type                 SuggestionType `json:"type"`
	UserID               string         `json:"user_id"`
	TaskID               string         `json:"task_id,omitempty"`
	TaskTitle            string         `json:"task_title,omitempty"`
	Hours                float64        `json:"hours"`
	CandidateUserID      string         `json:"candidate_user_id,omitempty"`
	CandidateUtilization float64        `json:"candidate_utilization,omitempty"`
	CurrentDueAt         *time.Time     `json:"current_due_at,omitempty"`
	ProposedDueAt        *time.Time     `json:"proposed_due_at,omitempty"`
	Reason               string         `json:"reason"`
}

// OverloadResult summarizes overload across the users of a project.
type OverloadResult struct {
	ProjectID          string            `json:"project_id,omitempty"`
	CurrentWeek        string            `json:"current_week,omitempty"`
	TotalUsersAnalyzed int               `json:"total_users_analyzed"`
	OverloadedUsers    []*OverloadedUser `json:"overloaded_users"`
	HasOverloads       bool              `json:"has_overloads"`
	SustainedOverloads int               `json:"sustained_overloads"`
	Status             HealthStatus      `json:"status"`
	Suggestions        []*Suggestion     `json:"suggestions"`
}

// HealthSnapshot combines the dependency and capacity analyses of a project.
type HealthSnapshot struct {
	ProjectID string           `json:"project_id"`
	Status    HealthStatus     `json:"status"`
	Progress  *ProgressMetrics `json:"progress"`
	Deadlocks [][]string       `json:"deadlocks"`
	Overloads *OverloadResult  `json:"overloads"`
}
