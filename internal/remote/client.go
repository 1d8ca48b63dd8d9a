// Package remote talks to an external scoring backend. The backend is an
// optional collaborator; when it is unreachable the system degrades to
// local scoring instead of failing.
package remote

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

	"aptmatch/internal/domain"
)

// ConnectivityError reports an unreachable or timed-out backend. Callers
// treat it as a degraded-mode condition, not a fatal failure.
type ConnectivityError struct {
	BaseURL string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("scoring backend %s unreachable: %v", e.BaseURL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Client is a minimal scoring backend HTTP client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
}

// Configured reports whether a backend URL is set at all.
func (c *Client) Configured() bool {
	return c != nil && c.BaseURL != ""
}

// HealthCheck probes the backend. A false result with a nil error never
// occurs; unreachability comes back as a ConnectivityError.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "api/health", nil, nil)
}

// ProjectMatches mirrors the backend's per-project result shape.
type ProjectMatches struct {
	Project    domain.Project       `json:"project"`
	Candidates []domain.MatchResult `json:"candidates"`
}

type matchRequest struct {
	Candidates []domain.Candidate `json:"candidates"`
	Projects   []domain.Project   `json:"projects"`
}

// Match scores every candidate against every project on the backend.
func (c *Client) Match(ctx context.Context, candidates []domain.Candidate, projects []domain.Project) (map[string]ProjectMatches, error) {
	var resp map[string]ProjectMatches
	err := c.do(ctx, http.MethodPost, "api/match", matchRequest{Candidates: candidates, Projects: projects}, &resp)
	return resp, err
}

// MatchForProject scores candidates against a single project.
func (c *Client) MatchForProject(ctx context.Context, projectID string, candidates []domain.Candidate, projects []domain.Project) (ProjectMatches, error) {
	var resp ProjectMatches
	endpoint := "api/match/project/" + url.PathEscape(projectID)
	err := c.do(ctx, http.MethodPost, endpoint, matchRequest{Candidates: candidates, Projects: projects}, &resp)
	return resp, err
}

// AnalyzeCandidate scores one candidate against all projects.
func (c *Client) AnalyzeCandidate(ctx context.Context, candidateID string, candidates []domain.Candidate, projects []domain.Project) ([]domain.MatchResult, error) {
	var resp []domain.MatchResult
	endpoint := "api/analyze/candidate/" + url.PathEscape(candidateID)
	err := c.do(ctx, http.MethodPost, endpoint, matchRequest{Candidates: candidates, Projects: projects}, &resp)
	return resp, err
}

// do issues one request. The client is shared across server handlers,
// so it must never write to the receiver.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{BaseURL: c.BaseURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	var cerr *ConnectivityError
	return errors.As(err, &cerr)
}
