// Package client provides a transport-agnostic interface for the kplan service
// with HTTP/JSON and gRPC implementations.
package client

import (
	"context"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/model"
)

// PlanClient is the interface that all kp CLI commands use to communicate
// with the kplan server. It is implemented by HTTPClient (default) and
// GRPCClient.
type PlanClient interface {
	// Dependency graph
	Graph(ctx context.Context, projectID string) (*model.GraphResponse, error)
	AddDependency(ctx context.Context, req *AddDependencyRequest) (*model.Dependency, error)
	RemoveDependency(ctx context.Context, id, actor string) error
	ExplainBlocker(ctx context.Context, objectType, objectID string) (*model.BlockerExplanation, error)

	// Progress
	ProjectProgress(ctx context.Context, projectID string) (*model.ProgressMetrics, error)
	PortfolioMetrics(ctx context.Context, organizationID string) (*model.PortfolioMetrics, error)

	// Capacity
	UserCapacity(ctx context.Context, userID, projectID string) (*model.UserCapacity, error)
	DetectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error)
	SetCapacity(ctx context.Context, userID string, hoursPerWeek float64, actor string) error
	ListCapacities(ctx context.Context) (*capacity.Ceilings, error)

	// Combined
	HealthSnapshot(ctx context.Context, projectID string) (*model.HealthSnapshot, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// AddDependencyRequest holds parameters for adding a dependency.
type AddDependencyRequest struct {
	FromInitiativeID string `json:"from_initiative_id"`
	ToInitiativeID   string `json:"to_initiative_id"`
	Type             string `json:"type,omitempty"`
	CreatedBy        string `json:"created_by,omitempty"`
}
