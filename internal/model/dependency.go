package model

import "time"

// DependencyType categorizes the relationship between two initiatives.
type DependencyType string

const (
	// DepBlocks means the source initiative must progress before the target can.
	DepBlocks DependencyType = "blocks"
	// DepRelates is informational and never participates in cycle analysis.
	DepRelates DependencyType = "relates"
)

// String returns the string representation of the dependency type.
func (d DependencyType) String() string {
	return string(d)
}

// IsValid checks whether the dependency type is a known value.
func (d DependencyType) IsValid() bool {
	switch d {
	case DepBlocks, DepRelates:
		return true
	}
	return false
}

// Dependency is a directed edge between two initiatives of the same project.
// The triple (FromInitiativeID, ToInitiativeID, Type) is unique.
type Dependency struct {
	ID               string         `json:"id"`
	FromInitiativeID string         `json:"from_initiative_id"`
	ToInitiativeID   string         `json:"to_initiative_id"`
	Type             DependencyType `json:"type"`
	CreatedAt        time.Time      `json:"created_at"`
	CreatedBy        string         `json:"created_by,omitempty"`
}
