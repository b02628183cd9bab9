package model

// GraphEdge represents a dependency relationship as a graph edge.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// GraphStats holds aggregate counts for a project graph.
type GraphStats struct {
	TotalInitiatives int `json:"total_initiatives"`
	BlockingEdges    int `json:"blocking_edges"`
	RelatesEdges     int `json:"relates_edges"`
	Deadlocks        int `json:"deadlocks"`
}

// GraphResponse is the response for the project graph endpoint.
// Deadlocks lists every blocking cycle, each starting at its smallest id.
type GraphResponse struct {
	ProjectID string        `json:"project_id"`
	Nodes     []*Initiative `json:"nodes"`
	Edges     []*GraphEdge  `json:"edges"`
	Deadlocks [][]string    `json:"deadlocks"`
	Stats     *GraphStats   `json:"stats"`
}

// ExplanationKind distinguishes the shapes a blocker explanation can take.
type ExplanationKind string

const (
	ExplanationNone  ExplanationKind = "none"
	ExplanationChain ExplanationKind = "chain"
	ExplanationCycle ExplanationKind = "cycle"
)

// BlockerExplanation describes why an initiative cannot progress.
//
// For ExplanationCycle, Cycle holds the deadlock the initiative sits on.
// For ExplanationChain, RootCauses holds the unblocked initiatives at the
// start of each chain and Chains holds one path per root cause, ending at
// the explained initiative.
type BlockerExplanation struct {
	ObjectType        string          `json:"object_type"`
	ObjectID          string          `json:"object_id"`
	Kind              ExplanationKind `json:"kind"`
	Cycle             []string        `json:"cycle,omitempty"`
	RootCauses        []string        `json:"root_causes,omitempty"`
	Chains            [][]string      `json:"chains,omitempty"`
	UpstreamDeadlocks [][]string      `json:"upstream_deadlocks,omitempty"`
	Summary           string          `json:"summary"`
}
