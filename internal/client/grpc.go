package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/groblegark/configstore/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	grpcGetConfig  = "/configstore.v1.ConfigStore/GetConfig"
	grpcListModels = "/configstore.v1.ConfigStore/ListModels"
	grpcHealth     = "/configstore.v1.ConfigStore/Health"
)

// GRPCClient implements ConfigClient using the gRPC transport.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// Extra dial options are appended to the defaults (insecure transport).
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

func (c *GRPCClient) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// GetConfig sends the body as a google.protobuf.Struct. Only JSON objects
// (or an empty body) can be carried; anything else is rejected locally.
func (c *GRPCClient) GetConfig(ctx context.Context, body []byte) (*LookupResponse, error) {
	fields := map[string]any{}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("grpc lookup body must be a JSON object: %w", err)
		}
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding lookup: %w", err)
	}

	var out structpb.Struct
	err = c.conn.Invoke(c.outgoing(ctx), grpcGetConfig, in, &out)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok {
			return nil, err
		}
		code := httpStatus(st.Code())
		if code != http.StatusNotFound && code != http.StatusBadRequest {
			return nil, fmt.Errorf("grpc GetConfig: %w", err)
		}
		return &LookupResponse{
			StatusCode: code,
			Body:       map[string]any{"error": st.Message()},
			Error:      st.Message(),
		}, nil
	}
	return &LookupResponse{StatusCode: http.StatusOK, Body: out.AsMap()}, nil
}

func (c *GRPCClient) Models(ctx context.Context) ([]model.ModelInfo, error) {
	var out structpb.Struct
	if err := c.conn.Invoke(c.outgoing(ctx), grpcListModels, &emptypb.Empty{}, &out); err != nil {
		return nil, fmt.Errorf("grpc ListModels: %w", err)
	}
	raw, err := json.Marshal(out.AsMap())
	if err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}
	var resp struct {
		Models []model.ModelInfo `json:"models"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding models: %w", err)
	}
	return resp.Models, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	var out structpb.Struct
	if err := c.conn.Invoke(c.outgoing(ctx), grpcHealth, &emptypb.Empty{}, &out); err != nil {
		return "", fmt.Errorf("grpc Health: %w", err)
	}
	s, _ := out.AsMap()["status"].(string)
	return s, nil
}

// httpStatus maps a gRPC code to the equivalent HTTP status.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
