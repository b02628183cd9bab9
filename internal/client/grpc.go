package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const analysisService = "/kplan.v1.AnalysisService/"

// GRPCClient implements PlanClient using the gRPC transport. Messages are
// google.protobuf.Struct values carrying the HTTP API's JSON shapes.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn, token: token}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// invoke calls method with req and decodes the response into result.
func (c *GRPCClient) invoke(ctx context.Context, method string, req map[string]any, result any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, analysisService+method, in, out); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// --- Dependency graph ---

func (c *GRPCClient) Graph(ctx context.Context, projectID string) (*model.GraphResponse, error) {
	var resp model.GraphResponse
	if err := c.invoke(ctx, "GetGraph", map[string]any{"project_id": projectID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) AddDependency(ctx context.Context, req *AddDependencyRequest) (*model.Dependency, error) {
	var dep model.Dependency
	err := c.invoke(ctx, "AddDependency", map[string]any{
		"from_initiative_id": req.FromInitiativeID,
		"to_initiative_id":   req.ToInitiativeID,
		"type":               req.Type,
		"actor":              req.CreatedBy,
	}, &dep)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func (c *GRPCClient) RemoveDependency(ctx context.Context, id, actor string) error {
	return c.invoke(ctx, "RemoveDependency", map[string]any{"id": id, "actor": actor}, nil)
}

func (c *GRPCClient) ExplainBlocker(ctx context.Context, objectType, objectID string) (*model.BlockerExplanation, error) {
	var exp model.BlockerExplanation
	err := c.invoke(ctx, "ExplainBlocker", map[string]any{"object_type": objectType, "object_id": objectID}, &exp)
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// --- Progress ---

func (c *GRPCClient) ProjectProgress(ctx context.Context, projectID string) (*model.ProgressMetrics, error) {
	var m model.ProgressMetrics
	if err := c.invoke(ctx, "GetProjectProgress", map[string]any{"project_id": projectID}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *GRPCClient) PortfolioMetrics(ctx context.Context, organizationID string) (*model.PortfolioMetrics, error) {
	var m model.PortfolioMetrics
	if err := c.invoke(ctx, "GetPortfolioMetrics", map[string]any{"organization_id": organizationID}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- Capacity ---

func (c *GRPCClient) UserCapacity(ctx context.Context, userID, projectID string) (*model.UserCapacity, error) {
	var uc model.UserCapacity
	err := c.invoke(ctx, "GetUserCapacity", map[string]any{"user_id": userID, "project_id": projectID}, &uc)
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

func (c *GRPCClient) DetectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error) {
	var res model.OverloadResult
	if err := c.invoke(ctx, "DetectOverloads", map[string]any{"project_id": projectID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *GRPCClient) SetCapacity(ctx context.Context, userID string, hoursPerWeek float64, actor string) error {
	return c.invoke(ctx, "SetCapacity", map[string]any{
		"user_id":        userID,
		"hours_per_week": hoursPerWeek,
		"actor":          actor,
	}, nil)
}

func (c *GRPCClient) ListCapacities(ctx context.Context) (*capacity.Ceilings, error) {
	var ceilings capacity.Ceilings
	if err := c.invoke(ctx, "ListCapacities", map[string]any{}, &ceilings); err != nil {
		return nil, err
	}
	return &ceilings, nil
}

// --- Combined ---

func (c *GRPCClient) HealthSnapshot(ctx context.Context, projectID string) (*model.HealthSnapshot, error) {
	var snap model.HealthSnapshot
	if err := c.invoke(ctx, "GetHealthSnapshot", map[string]any{"project_id": projectID}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// --- Health ---

// Health queries the standard gRPC health service.
func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", err
	}
	if resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
		return "ok", nil
	}
	return resp.GetStatus().String(), nil
}
