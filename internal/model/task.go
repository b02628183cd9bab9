package model

import "time"

// TaskStatus represents the state of an assigned unit of work.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskBlocked, TaskDone:
		return true
	}
	return false
}

// Priority ranks tasks when work has to be moved or deferred.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// IsValid checks whether the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

// Rank orders priorities from least (0) to most important.
// Unknown values rank below normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return 0
}

// Task is an assigned unit of work with an hour estimate.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	Title          string     `json:"title"`
	EstimatedHours float64    `json:"estimated_hours"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	Status         TaskStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `json:"created_by,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskUpdate is a partial update to a task. Nil fields are left unchanged;
// ClearDueAt removes the due date.
type TaskUpdate struct {
	AssigneeID     *string     `json:"assignee_id,omitempty"`
	Title          *string     `json:"title,omitempty"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty"`
	DueAt          *time.Time  `json:"due_at,omitempty"`
	ClearDueAt     bool        `json:"clear_due_at,omitempty"`
	Status         *TaskStatus `json:"status,omitempty"`
	Priority       *Priority   `json:"priority,omitempty"`
}

// Apply writes the set fields onto t and returns the changed field names
// mapped to their new values.
func (u *TaskUpdate) Apply(t *Task) map[string]any {
	changes := map[string]any{}
	if u.AssigneeID != nil {
		t.AssigneeID = *u.AssigneeID
		changes["assignee_id"] = t.AssigneeID
	}
	if u.Title != nil {
		t.Title = *u.Title
		changes["title"] = t.Title
	}
	if u.EstimatedHours != nil {
		t.EstimatedHours = *u.EstimatedHours
		changes["estimated_hours"] = t.EstimatedHours
	}
	if u.ClearDueAt {
		t.DueAt = nil
		changes["due_at"] = nil
	} else if u.DueAt != nil {
		d := *u.DueAt
		t.DueAt = &d
		changes["due_at"] = d
	}
	if u.Status != nil {
		t.Status = *u.Status
		changes["status"] = t.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
		changes["priority"] = t.Priority
	}
	return changes
}
