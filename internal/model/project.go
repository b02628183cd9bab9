package model

import "time"

// Project groups initiatives and tasks. Projects belong to an organization,
// which is the unit portfolio metrics aggregate over.
type Project struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by,omitempty"`
}
