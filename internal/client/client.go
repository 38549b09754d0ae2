// Package client talks to the results backend that serves pre-computed
// simulation runs, scores and chart series.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/mtfdash/internal/core"
)

const (
	// TokenHeader carries the optional static API token.
	TokenHeader = "X-API-Token"

	// DefaultRunLimit is used when GetLatestRuns is called with limit <= 0.
	DefaultRunLimit = 20

	defaultTimeout = 10 * time.Second
)

// Endpoint names, used for metrics and error messages.
const (
	EndpointLatestRuns = "runs_latest"
	EndpointSymbols    = "symbols"
	EndpointKPIs       = "kpis"
	EndpointGLRS       = "glrs"
	EndpointScorecard  = "scorecard"
	EndpointDaily      = "daily"
	EndpointH1         = "h1"
	EndpointRegime     = "regime"
)

// HTTPError is returned when the backend answers with a non-success status.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API Error: %d %s", e.StatusCode, e.Status)
}

// Is lets errors.Is(err, core.ErrHTTPStatus) match any HTTPError.
func (e *HTTPError) Is(target error) bool {
	var ce *core.Error
	if errors.As(target, &ce) {
		return ce.Code == core.ErrHTTPStatus.Code
	}
	return false
}

// Observer is notified after every backend call.
type Observer interface {
	ObserveBackendRequest(endpoint string, status int, duration time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken sets the initial API token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithObserver registers a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// Client wraps the backend's read-only JSON endpoints.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer

	mu    sync.RWMutex
	token string
}

// New creates a client for the backend at baseURL (e.g. http://localhost:8000).
// The /api prefix is appended by the client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api",
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken attaches token to every subsequent call.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// GetLatestRuns fetches the most recent runs.
func (c *Client) GetLatestRuns(ctx context.Context, limit int) ([]core.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	var runs []core.Run
	path := "/runs/latest?limit=" + strconv.Itoa(limit)
	if err := c.get(ctx, EndpointLatestRuns, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRunSymbols fetches the symbols traded in a run.
func (c *Client) GetRunSymbols(ctx context.Context, runID string) (*core.SymbolList, error) {
	var out *core.SymbolList
	if err := c.get(ctx, EndpointSymbols, runPath(runID, "symbols"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRunKPIs fetches the KPI set of a run.
func (c *Client) GetRunKPIs(ctx context.Context, runID string) (*core.KPISet, error) {
	var out *core.KPISet
	if err := c.get(ctx, EndpointKPIs, runPath(runID, "kpis"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRunGLRS fetches the readiness breakdown of a run.
func (c *Client) GetRunGLRS(ctx context.Context, runID string) (*core.GLRS, error) {
	var out *core.GLRS
	if err := c.get(ctx, EndpointGLRS, runPath(runID, "glrs"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRunScorecard fetches the success scorecard of a run.
func (c *Client) GetRunScorecard(ctx context.Context, runID string) (*core.Scorecard, error) {
	var out *core.Scorecard
	if err := c.get(ctx, EndpointScorecard, runPath(runID, "scorecard"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDailyChart fetches daily bars and overlays for a symbol.
func (c *Client) GetDailyChart(ctx context.Context, runID, symbol string) (*core.DailyChart, error) {
	var out *core.DailyChart
	if err := c.get(ctx, EndpointDaily, symbolPath(runID, symbol, "daily"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetH1Chart fetches hourly bars and overlays for a symbol.
func (c *Client) GetH1Chart(ctx context.Context, runID, symbol string) (*core.HourlyChart, error) {
	var out *core.HourlyChart
	if err := c.get(ctx, EndpointH1, symbolPath(runID, symbol, "h1"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRegimeData fetches the regime timeline of a run.
func (c *Client) GetRegimeData(ctx context.Context, runID string) (*core.RegimeData, error) {
	var out *core.RegimeData
	if err := c.get(ctx, EndpointRegime, runPath(runID, "regime"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func runPath(runID, resource string) string {
	return "/run/" + url.PathEscape(runID) + "/" + resource
}

func symbolPath(runID, symbol, resource string) string {
	return "/run/" + url.PathEscape(runID) + "/symbol/" + url.PathEscape(symbol) + "/" + resource
}

// get performs a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return core.WrapError(core.ErrBackendFailed, fmt.Errorf("building %s request: %w", endpoint, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set(TokenHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return core.WrapError(core.ErrBackendFailed, fmt.Errorf("fetching %s: %w", endpoint, err))
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrBackendFailed, fmt.Errorf("decoding %s: %w", endpoint, err))
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(endpoint, status, time.Since(start))
	}
}

// statusText strips the numeric prefix of resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
