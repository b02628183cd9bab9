package model

import "time"

// InitiativeStatus represents the delivery state of an initiative.
type InitiativeStatus string

const (
	InitiativeNotStarted InitiativeStatus = "not_started"
	InitiativeInProgress InitiativeStatus = "in_progress"
	InitiativeAtRisk     InitiativeStatus = "at_risk"
	InitiativeBlocked    InitiativeStatus = "blocked"
	InitiativeDone       InitiativeStatus = "done"
)

// String returns the string representation of the status.
func (s InitiativeStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s InitiativeStatus) IsValid() bool {
	switch s {
	case InitiativeNotStarted, InitiativeInProgress, InitiativeAtRisk, InitiativeBlocked, InitiativeDone:
		return true
	}
	return false
}

// Initiative is a unit of strategic work inside a project, ordered by phase.
type Initiative struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Title     string           `json:"title"`
	Phase     int              `json:"phase"`
	Status    InitiativeStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	CreatedBy string           `json:"created_by,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}
