package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event records one mutation of planning data: who changed which
// project, initiative, dependency, task or capacity, and the published
// payload. Events are append-only.
type Event struct {
	ID        int64           `json:"id"`
	Topic     string          `json:"topic"`
	SubjectID string          `json:"subject_id"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent builds an Event carrying payload encoded as JSON.
func NewEvent(topic, subjectID, actor string, payload any, at time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload for %s: %w", topic, subjectID, err)
	}
	return &Event{
		Topic:     topic,
		SubjectID: subjectID,
		Actor:     actor,
		Payload:   data,
		CreatedAt: at,
	}, nil
}
