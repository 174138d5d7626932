// Package client provides a transport-agnostic interface for the configstore
// service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/groblegark/configstore/internal/model"
)

// ConfigClient is the interface the CLI and the contract suite use to talk
// to a configstore server.
type ConfigClient interface {
	// GetConfig sends a raw lookup body. Lookup errors reported by the server
	// are returned in the response, not as an error.
	GetConfig(ctx context.Context, body []byte) (*LookupResponse, error)

	// Models lists the models the server resolves.
	Models(ctx context.Context) ([]model.ModelInfo, error)

	// Health returns the server's health status string.
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// LookupResponse is the outcome of a lookup as seen by a client.
type LookupResponse struct {
	// StatusCode is the HTTP status, or the HTTP equivalent of a gRPC code.
	StatusCode int
	// Body is the decoded response object: a record or {"error": message}.
	Body map[string]any
	// Error is the error message when the lookup failed.
	Error string
}

// OK reports whether the lookup returned a record.
func (r *LookupResponse) OK() bool {
	return r.StatusCode == http.StatusOK && r.Error == ""
}

// Lookup is a convenience wrapper that encodes {Type, Data} and calls GetConfig.
func Lookup(ctx context.Context, c ConfigClient, typeName, data string) (*LookupResponse, error) {
	return c.GetConfig(ctx, model.NewLookupBody(typeName, data))
}

// decodeLookup builds a LookupResponse from a status and a JSON object body.
func decodeLookup(status int, body []byte) (*LookupResponse, error) {
	resp := &LookupResponse{StatusCode: status}
	if err := json.Unmarshal(body, &resp.Body); err != nil {
		return nil, fmt.Errorf("decoding lookup response (HTTP %d): %w", status, err)
	}
	if status != http.StatusOK {
		resp.Error, _ = resp.Body["error"].(string)
	}
	return resp, nil
}
