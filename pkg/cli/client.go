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

	"github.com/getmockd/routemock/pkg/admin"
	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/route"
)

// AdminClient provides methods for communicating with the routemock admin API.
type AdminClient interface {
	// Health checks if the server is running.
	Health(ctx context.Context) (*admin.Health, error)
	// ListRoutes returns every route, or the one at path when path is set.
	ListRoutes(ctx context.Context, path string) ([]*route.Route, error)
	// GetContent previews the content of a route method or one of its overrides.
	GetContent(ctx context.Context, path, methodType, overrideName string) (json.RawMessage, error)
	// UseOverride selects the named override of a route method.
	UseOverride(ctx context.Context, path, methodType, name string) (*route.Selection, error)
	// UseThrottling toggles the named throttling band.
	UseThrottling(ctx context.Context, name string) error
	// GetThrottling returns the throttling bands and the active one.
	GetThrottling(ctx context.Context) (*admin.ThrottlingStatus, error)
	// GetConfig returns the throttling bands and proxies.
	GetConfig(ctx context.Context) (*config.Options, error)
	// ListOverridable returns the routes that have at least one override.
	ListOverridable(ctx context.Context) ([]*route.Route, error)
	// ListSelected returns the current override selections.
	ListSelected(ctx context.Context) ([]route.Selection, error)
	// GetOpenAPI returns the OpenAPI document describing the routes.
	GetOpenAPI(ctx context.Context) (json.RawMessage, error)
	// EventsURL returns the websocket URL of the event stream.
	EventsURL() string
}

// APIError represents an error response from the admin API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrConnection is wrapped by errors returned when the server cannot be reached.
var ErrConnection = errors.New("cannot connect to admin API")

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
// The baseURL is the server's base URL (e.g., "http://localhost:8080");
// admin paths are appended to it.
func NewAdminClient(baseURL string, opts ...ClientOption) AdminClient {
	c := &adminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *adminClient) Health(ctx context.Context) (*admin.Health, error) {
	var h admin.Health
	if err := c.getJSON(ctx, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *adminClient) ListRoutes(ctx context.Context, path string) ([]*route.Route, error) {
	var query url.Values
	if path != "" {
		query = url.Values{"path": {path}}
	}
	var routes []*route.Route
	if err := c.getJSON(ctx, "/routes", query, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func (c *adminClient) GetContent(ctx context.Context, path, methodType, overrideName string) (json.RawMessage, error) {
	query := url.Values{"path": {path}, "type": {methodType}}
	if overrideName != "" {
		query.Set("overrideName", overrideName)
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/routes/content", query, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *adminClient) UseOverride(ctx context.Context, path, methodType, name string) (*route.Selection, error) {
	body := admin.UseOverrideRequest{Path: path, Type: methodType, Name: name}
	resp, err := c.do(ctx, http.MethodPost, "/routes/use-override", nil, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	var sel route.Selection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &sel, nil
}

func (c *adminClient) UseThrottling(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/routes/use-throttling", nil, admin.UseThrottlingRequest{Name: name})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

func (c *adminClient) GetThrottling(ctx context.Context) (*admin.ThrottlingStatus, error) {
	var status admin.ThrottlingStatus
	if err := c.getJSON(ctx, "/throttling", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *adminClient) GetConfig(ctx context.Context) (*config.Options, error) {
	var opts config.Options
	if err := c.getJSON(ctx, "/config", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (c *adminClient) ListOverridable(ctx context.Context) ([]*route.Route, error) {
	var routes []*route.Route
	if err := c.getJSON(ctx, "/overrides", nil, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func (c *adminClient) ListSelected(ctx context.Context) ([]route.Selection, error) {
	var selected []route.Selection
	if err := c.getJSON(ctx, "/overrides/selected", nil, &selected); err != nil {
		return nil, err
	}
	return selected, nil
}

func (c *adminClient) GetOpenAPI(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/openapi.json", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *adminClient) EventsURL() string {
	u := c.baseURL + admin.Prefix + "/events"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// getJSON performs a GET and decodes a 200 response into v.
func (c *adminClient) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// do performs a request against the admin path. A non-nil body is encoded as JSON.
func (c *adminClient) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	fullURL := c.baseURL + admin.Prefix + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
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
		return nil, fmt.Errorf("%w at %s: %w", ErrConnection, c.baseURL, err)
	}
	return resp, nil
}

// parseError parses an error response from the API.
func (c *adminClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

// FormatConnectionError returns a user-friendly error message for connection failures.
func FormatConnectionError(err error) error {
	if errors.Is(err, ErrConnection) {
		return fmt.Errorf(`%w

Suggestions:
  • Start the server: routemock serve
  • Check if the server is running on the expected port
  • Pass the server URL with --admin-url or $ROUTEMOCK_ADMIN_URL`, err)
	}
	return err
}
