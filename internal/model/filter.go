package model

// TaskFilter holds criteria for querying tasks. Empty fields do not filter.
type TaskFilter struct {
	ProjectID   string       `json:"project_id,omitempty"`
	AssigneeID  string       `json:"assignee_id,omitempty"`
	Status      []TaskStatus `json:"status,omitempty"`
	ExcludeDone bool         `json:"exclude_done,omitempty"`
}
