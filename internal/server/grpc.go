package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/groblegark/configstore/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "configstore.v1.ConfigStore"

// Full method names.
const (
	GetConfigMethod  = "/" + ServiceName + "/GetConfig"
	ListModelsMethod = "/" + ServiceName + "/ListModels"
	HealthMethod     = "/" + ServiceName + "/Health"
)

// ConfigStoreServer is the server API for the configstore.v1.ConfigStore service.
type ConfigStoreServer interface {
	GetConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListModels(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the ConfigStore service and reflection, and returns the server
// ready to serve.
func NewGRPCServer(cs *ConfigServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(cs.logger),
			LoggingInterceptor(cs.logger),
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&serviceDesc, cs)
	reflection.Register(srv)

	return srv
}

// GetConfig resolves a lookup whose request object mirrors the HTTP body.
func (s *ConfigServer) GetConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, model.ErrBadInput.Error())
	}
	rec, err := s.Lookup(withTransport(ctx, "grpc"), body)
	if err != nil {
		return nil, lookupStatusError(err)
	}
	out, err := structpb.NewStruct(rec.WireFields())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding record: %v", err)
	}
	return out, nil
}

// ListModels returns the same document as GET /v1/models.
func (s *ConfigServer) ListModels(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := toStruct(s.listModels())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding models: %v", err)
	}
	return out, nil
}

// Health returns the service health status.
func (s *ConfigServer) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, "unavailable")
	}
	return structpb.NewStruct(map[string]any{"status": "ok"})
}

// lookupStatusError maps a lookup error to a gRPC status carrying the same message.
func lookupStatusError(err error) error {
	switch {
	case errors.Is(err, model.ErrBadInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrModelNotPresent), errors.Is(err, model.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts a JSON-encodable value into a structpb.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return structpb.NewStruct(m)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfigStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetConfig", Handler: getConfigHandler},
		{MethodName: "ListModels", Handler: listModelsHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "configstore/v1/configstore.proto",
}

func getConfigHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfigStoreServer).GetConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetConfigMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfigStoreServer).GetConfig(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listModelsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfigStoreServer).ListModels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListModelsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfigStoreServer).ListModels(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConfigStoreServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConfigStoreServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
