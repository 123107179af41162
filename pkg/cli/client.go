package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/mockapi/pkg/admin"
	"github.com/getmockd/mockapi/pkg/endpoint"
	"github.com/getmockd/mockapi/pkg/engine"
)

// AdminClient provides methods for communicating with the mockapi admin API.
type AdminClient interface {
	// Publish creates or replaces an endpoint definition.
	Publish(ctx context.Context, req *admin.PublishRequest) (*admin.PublishResult, error)
	// List returns a project's endpoints.
	List(ctx context.Context, project string) ([]admin.EndpointSummary, error)
	// Delete removes one method's definition of a route.
	Delete(ctx context.Context, project, route, method string) error
	// SetStatus overrides a route's status code and error body.
	SetStatus(ctx context.Context, req *admin.StatusRequest) (*admin.StatusResult, error)
	// OpenAPI returns a project's OpenAPI document.
	OpenAPI(ctx context.Context, project string) (json.RawMessage, error)
	// Health checks if the server is running.
	Health(ctx context.Context) error
}

// APIError represents an error response from the admin API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// adminClient implements AdminClient using HTTP.
type adminClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures an admin client.
type ClientOption func(*adminClient)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *adminClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *adminClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewAdminClient creates a new admin API client.
// The baseURL is the server root (e.g., "http://localhost:8080"); the admin
// prefix is added by the client.
func NewAdminClient(baseURL string, opts ...ClientOption) AdminClient {
	c := &adminClient{
		baseURL: strings.TrimRight(baseURL, "/") + engine.AdminPrefix,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish creates or replaces an endpoint definition.
func (c *adminClient) Publish(ctx context.Context, req *admin.PublishRequest) (*admin.PublishResult, error) {
	var res admin.PublishResult
	if err := c.call(ctx, http.MethodPost, "/endpoints", req, http.StatusCreated, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns a project's endpoints.
func (c *adminClient) List(ctx context.Context, project string) ([]admin.EndpointSummary, error) {
	var res struct {
		Endpoints []admin.EndpointSummary `json:"endpoints"`
	}
	path := "/endpoints?" + url.Values{"project": {project}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return res.Endpoints, nil
}

// Delete removes one method's definition of a route.
func (c *adminClient) Delete(ctx context.Context, project, route, method string) error {
	q := url.Values{"project": {project}, "route": {route}, "method": {method}}
	return c.call(ctx, http.MethodDelete, "/endpoints?"+q.Encode(), nil, http.StatusOK, nil)
}

// SetStatus overrides a route's status code and error body.
func (c *adminClient) SetStatus(ctx context.Context, req *admin.StatusRequest) (*admin.StatusResult, error) {
	var res admin.StatusResult
	if err := c.call(ctx, http.MethodPut, "/endpoints/status", req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// OpenAPI returns a project's OpenAPI document.
func (c *adminClient) OpenAPI(ctx context.Context, project string) (json.RawMessage, error) {
	var doc json.RawMessage
	path := "/openapi?" + url.Values{"project": {project}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Health checks if the server is running.
func (c *adminClient) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil)
}

// call sends body as JSON and decodes a response with the expected status
// into out.
func (c *adminClient) call(ctx context.Context, method, path string, body any, expect int, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != expect {
		return c.parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request.
func (c *adminClient) doRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			StatusCode: 0,
			ErrorCode:  "connection_error",
			Message:    fmt.Sprintf("cannot connect to admin API at %s: %v", c.baseURL, err),
		}
	}
	return resp, nil
}

// parseError converts an error response into an APIError.
func (c *adminClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp endpoint.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    describeErrorResponse(&errResp),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

func describeErrorResponse(r *endpoint.ErrorResponse) string {
	var b strings.Builder
	b.WriteString(r.Error)
	if r.Detail != "" {
		b.WriteString(": " + r.Detail)
	}
	if r.Project != "" || r.Route != "" {
		fmt.Fprintf(&b, " (%s/%s", r.Project, r.Route)
		if r.Method != "" {
			b.WriteString(" " + r.Method)
		}
		b.WriteString(")")
	}
	if r.Expected != "" {
		fmt.Fprintf(&b, " (expected %s)", r.Expected)
	}
	return b.String()
}

// FormatError returns a user-friendly message for err.
func FormatError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == "connection_error" {
		return fmt.Sprintf(`Error: %s

Suggestions:
  • Start the server: mockapi serve
  • Check the server address with --admin-url or MOCKAPI_ADMIN_URL`, apiErr.Message)
	}
	return "Error: " + err.Error()
}
