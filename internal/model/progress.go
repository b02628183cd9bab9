package model

// InitiativeProgress is the progress figure derived from one initiative's status.
type InitiativeProgress struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Phase    int              `json:"phase"`
	Status   InitiativeStatus `json:"status"`
	Progress float64          `json:"progress"`
}

// PhaseProgress rolls up the initiatives of a single phase.
type PhaseProgress struct {
	Phase       int     `json:"phase"`
	Initiatives int     `json:"initiatives"`
	Progress    float64 `json:"progress"`
}

// ProgressMetrics is the rollup for one project.
type ProgressMetrics struct {
	ScopeID          string                `json:"scope_id"`
	TotalInitiatives int                   `json:"total_initiatives"`
	Progress         float64               `json:"progress"`
	NotStartedCount  int                   `json:"not_started_count"`
	InProgressCount  int                   `json:"in_progress_count"`
	AtRiskCount      int                   `json:"at_risk_count"`
	BlockedCount     int                   `json:"blocked_count"`
	DoneCount        int                   `json:"done_count"`
	Phases           []*PhaseProgress      `json:"phases"`
	Initiatives      []*InitiativeProgress `json:"initiatives"`
}

// PortfolioMetrics is the rollup across every project of an organization.
type PortfolioMetrics struct {
	OrganizationID   string             `json:"organization_id"`
	TotalProjects    int                `json:"total_projects"`
	TotalInitiatives int                `json:"total_initiatives"`
	Progress         float64            `json:"progress"`
	AtRiskCount      int                `json:"at_risk_count"`
	BlockedCount     int                `json:"blocked_count"`
	DoneCount        int                `json:"done_count"`
	Projects         []*ProgressMetrics `json:"projects"`
}
