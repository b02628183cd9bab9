package events

import (
	"encoding/json"
	"sync"
)

// subscriptionBuffer bounds how many undelivered messages a subscription
// holds before dropping new ones.
const subscriptionBuffer = 64

// Message is one event received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// ProjectID reports which project the event concerns, or "" when the payload
// does not name one. Dependency and capacity events carry no project and so
// return "".
func (m Message) ProjectID() string {
	var payload struct {
		Project *struct {
			ID string `json:"id"`
		} `json:"project"`
		Initiative *struct {
			ProjectID string `json:"project_id"`
		} `json:"initiative"`
		Task *struct {
			ProjectID string `json:"project_id"`
		} `json:"task"`
	}
	if err := json.Unmarshal(m.Data, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Project != nil:
		return payload.Project.ID
	case payload.Initiative != nil:
		return payload.Initiative.ProjectID
	case payload.Task != nil:
		return payload.Task.ProjectID
	}
	return ""
}

// subscription is the delivery side shared by the NATS and Redis subscribers.
// Deliveries never block: when the reader falls behind, messages are dropped.
type subscription struct {
	ch     chan Message
	mu     sync.Mutex
	closed bool
	once   sync.Once
	stop   func()
}

func newSubscription() *subscription {
	return &subscription{ch: make(chan Message, subscriptionBuffer)}
}

// deliver queues msg unless the subscription is closed or full.
// It reports whether the message was queued.
func (s *subscription) deliver(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// cancel runs stop once and closes the channel. Safe to call repeatedly.
func (s *subscription) cancel() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
