package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/groblegark/configstore/internal/model"
)

// HTTPClient implements ConfigClient using the configstore HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8078"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) GetConfig(ctx context.Context, body []byte) (*LookupResponse, error) {
	status, respBody, err := c.do(ctx, http.MethodPost, "/get_config", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, apiError(status, respBody)
	}
	return decodeLookup(status, respBody)
}

func (c *HTTPClient) Models(ctx context.Context) ([]model.ModelInfo, error) {
	var resp struct {
		Models []model.ModelInfo `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Health returns the reported status. An unavailable server yields an
// *APIError with status 503.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiError(status int, body []byte) error {
	var errResp struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return &APIError{StatusCode: status, Message: errResp.Error}
		}
		if errResp.Status != "" {
			return &APIError{StatusCode: status, Message: errResp.Status}
		}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// do performs an HTTP request and returns the status code and body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON
// response into result. Statuses of 400 and above become *APIError.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	status, respBody, err := c.do(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
