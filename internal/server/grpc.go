package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// AnalysisServiceName is the fully qualified gRPC service name.
const AnalysisServiceName = "kplan.v1.AnalysisService"

// AnalysisServer is the set of operations served as kplan.v1.AnalysisService.
// Requests and responses travel as google.protobuf.Struct carrying the same
// JSON shapes as the HTTP API.
type AnalysisServer interface {
	BuildGraph(ctx context.Context, projectID string) (*model.GraphResponse, error)
	AddDependency(ctx context.Context, in DependencyInput) (*model.Dependency, error)
	RemoveDependency(ctx context.Context, id, actor string) (bool, error)
	ExplainBlocker(ctx context.Context, objectType, objectID string) (*model.BlockerExplanation, error)
	ProjectProgress(ctx context.Context, projectID string) (*model.ProgressMetrics, error)
	PortfolioMetrics(ctx context.Context, organizationID string) (*model.PortfolioMetrics, error)
	UserCapacity(ctx context.Context, userID, projectID string) (*model.UserCapacity, error)
	DetectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error)
	HealthSnapshot(ctx context.Context, projectID string) (*model.HealthSnapshot, error)
	SetCapacity(ctx context.Context, userID string, hoursPerWeek float64, actor string) error
	Capacities(ctx context.Context) (capacity.Ceilings, error)
}

// rpcRequest is the union of the fields the analysis RPCs read.
type rpcRequest struct {
	ProjectID        string               `json:"project_id"`
	OrganizationID   string               `json:"organization_id"`
	UserID           string               `json:"user_id"`
	ID               string               `json:"id"`
	ObjectType       string               `json:"object_type"`
	ObjectID         string               `json:"object_id"`
	FromInitiativeID string               `json:"from_initiative_id"`
	ToInitiativeID   string               `json:"to_initiative_id"`
	Type             model.DependencyType `json:"type"`
	HoursPerWeek     float64              `json:"hours_per_week"`
	Actor            string               `json:"actor"`
}

type rpcMethod func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error)

var analysisMethods = []struct {
	name string
	call rpcMethod
}{
	{"GetGraph", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.BuildGraph(ctx, req.ProjectID)
	}},
	{"AddDependency", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.AddDependency(ctx, DependencyInput{
			FromInitiativeID: req.FromInitiativeID,
			ToInitiativeID:   req.ToInitiativeID,
			Type:             req.Type,
			CreatedBy:        req.Actor,
		})
	}},
	{"RemoveDependency", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		removed, err := srv.RemoveDependency(ctx, req.ID, req.Actor)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"removed": removed}, nil
	}},
	{"ExplainBlocker", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.ExplainBlocker(ctx, req.ObjectType, req.ObjectID)
	}},
	{"GetProjectProgress", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.ProjectProgress(ctx, req.ProjectID)
	}},
	{"GetPortfolioMetrics", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.PortfolioMetrics(ctx, req.OrganizationID)
	}},
	{"GetUserCapacity", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.UserCapacity(ctx, req.UserID, req.ProjectID)
	}},
	{"DetectOverloads", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.DetectOverloads(ctx, req.ProjectID)
	}},
	{"GetHealthSnapshot", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.HealthSnapshot(ctx, req.ProjectID)
	}},
	{"SetCapacity", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		if err := srv.SetCapacity(ctx, req.UserID, req.HoursPerWeek, req.Actor); err != nil {
			return nil, err
		}
		return map[string]any{"user_id": req.UserID, "hours_per_week": req.HoursPerWeek}, nil
	}},
	{"ListCapacities", func(srv AnalysisServer, ctx context.Context, req *rpcRequest) (any, error) {
		return srv.Capacities(ctx)
	}},
}

// AnalysisServiceDesc describes kplan.v1.AnalysisService for grpc.RegisterService.
var AnalysisServiceDesc = newAnalysisServiceDesc()

func newAnalysisServiceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: AnalysisServiceName,
		HandlerType: (*AnalysisServer)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "kplan/v1/analysis.proto",
	}
	for _, m := range analysisMethods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unaryHandler(m.name, m.call),
		})
	}
	return desc
}

func unaryHandler(name string, call rpcMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			var r rpcRequest
			if err := fromStruct(req.(*structpb.Struct), &r); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
			}
			out, err := call(srv.(AnalysisServer), ctx, &r)
			if err != nil {
				return nil, grpcError(err)
			}
			st, err := toStruct(out)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode response: %v", err)
			}
			return st, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + AnalysisServiceName + "/" + name,
		}
		return interceptor(ctx, in, info, handler)
	}
}

// toStruct converts any JSON-encodable value to a structpb.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	st := new(structpb.Struct)
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return st, nil
}

// fromStruct decodes a structpb.Struct into v through its JSON form.
func fromStruct(st *structpb.Struct, v any) error {
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	return json.Unmarshal(b, v)
}

// grpcError maps a service error to a gRPC status.
func grpcError(err error) error {
	var (
		ve *model.ValidationError
		ce *model.ConflictError
		nf *model.NotFoundError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ce):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &nf):
		return status.Error(codes.NotFound, err.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the AnalysisService, the health service and reflection, and returns the
// server ready to serve.
func NewGRPCServer(planServer *PlanServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&AnalysisServiceDesc, planServer)

	hs := health.NewServer()
	hs.SetServingStatus(AnalysisServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)

	return srv
}
