package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/model"
)

// requestTimeout bounds a single API call. Portfolio metrics over a large
// organization are the slowest endpoint.
const requestTimeout = 30 * time.Second

// HTTPClient implements PlanClient over the /v1 JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient targets baseURL (e.g. "http://localhost:8080"). A non-empty
// token is sent as a bearer token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// resourcePath joins escaped path segments under /v1 and appends query
// parameters with non-empty values.
func resourcePath(segments []string, query ...string) string {
	var b strings.Builder
	b.WriteString("/v1")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	q := url.Values{}
	for i := 0; i+1 < len(query); i += 2 {
		if query[i+1] != "" {
			q.Set(query[i], query[i+1])
		}
	}
	if len(q) > 0 {
		b.WriteByte('?')
		b.WriteString(q.Encode())
	}
	return b.String()
}

func projectPath(projectID, view string) string {
	return resourcePath([]string{"projects", projectID, view})
}

// get fetches path and decodes the response into a new T.
func get[T any](ctx context.Context, c *HTTPClient, path string) (*T, error) {
	var v T
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) Graph(ctx context.Context, projectID string) (*model.GraphResponse, error) {
	return get[model.GraphResponse](ctx, c, projectPath(projectID, "graph"))
}

func (c *HTTPClient) AddDependency(ctx context.Context, req *AddDependencyRequest) (*model.Dependency, error) {
	var dep model.Dependency
	if err := c.doJSON(ctx, http.MethodPost, "/v1/dependencies", req, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (c *HTTPClient) RemoveDependency(ctx context.Context, id, actor string) error {
	return c.doJSON(ctx, http.MethodDelete, resourcePath([]string{"dependencies", id}, "actor", actor), nil, nil)
}

func (c *HTTPClient) ExplainBlocker(ctx context.Context, objectType, objectID string) (*model.BlockerExplanation, error) {
	return get[model.BlockerExplanation](ctx, c, resourcePath([]string{"blockers", objectType, objectID}))
}

func (c *HTTPClient) ProjectProgress(ctx context.Context, projectID string) (*model.ProgressMetrics, error) {
	return get[model.ProgressMetrics](ctx, c, projectPath(projectID, "progress"))
}

func (c *HTTPClient) PortfolioMetrics(ctx context.Context, organizationID string) (*model.PortfolioMetrics, error) {
	return get[model.PortfolioMetrics](ctx, c, resourcePath([]string{"organizations", organizationID, "portfolio"}))
}

func (c *HTTPClient) UserCapacity(ctx context.Context, userID, projectID string) (*model.UserCapacity, error) {
	return get[model.UserCapacity](ctx, c, resourcePath([]string{"users", userID, "capacity"}, "project_id", projectID))
}

func (c *HTTPClient) DetectOverloads(ctx context.Context, projectID string) (*model.OverloadResult, error) {
	return get[model.OverloadResult](ctx, c, projectPath(projectID, "overloads"))
}

func (c *HTTPClient) SetCapacity(ctx context.Context, userID string, hoursPerWeek float64, actor string) error {
	body := struct {
		HoursPerWeek float64 `json:"hours_per_week"`
		Actor        string  `json:"actor,omitempty"`
	}{hoursPerWeek, actor}
	return c.doJSON(ctx, http.MethodPut, resourcePath([]string{"capacities", userID}), body, nil)
}

func (c *HTTPClient) ListCapacities(ctx context.Context) (*capacity.Ceilings, error) {
	return get[capacity.Ceilings](ctx, c, "/v1/capacities")
}

func (c *HTTPClient) HealthSnapshot(ctx context.Context, projectID string) (*model.HealthSnapshot, error) {
	return get[model.HealthSnapshot](ctx, c, projectPath(projectID, "health"))
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	resp, err := get[struct {
		Status string `json:"status"`
	}](ctx, c, "/v1/health")
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON sends body (if any) as JSON and decodes a JSON response into
// result. A nil result discards the body.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
