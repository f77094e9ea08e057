package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/performance"
	"github.com/meltforce/freelift/internal/storage"
)

// HTTPClient implements DataSource by calling the FreeLift REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// identifies the caller itself, so userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into v. A 404 maps to
// storage.ErrNotFound so callers treat local and remote misses alike.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("httpclient: %s: %s: %w", path, body, analytics.ErrInvalidInput)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func rangeParams(start, end time.Time, exerciseID string) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	if exerciseID != "" {
		v.Set("exercise", exerciseID)
	}
	return v
}

func (c *HTTPClient) LoggedSets(ctx context.Context, _ int, start, end time.Time, exerciseID string) ([]models.LoggedSetRow, error) {
	var sets []models.LoggedSetRow
	if err := c.get(ctx, "/api/v1/sets", rangeParams(start, end, exerciseID), &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) Volume(ctx context.Context, _ int, start, end time.Time, exerciseID string) (analytics.VolumeSummary, error) {
	var v analytics.VolumeSummary
	err := c.get(ctx, "/api/v1/volume", rangeParams(start, end, exerciseID), &v)
	return v, err
}

func (c *HTTPClient) Recommendations(ctx context.Context, _ int) ([]analytics.ProgressionRecommendation, error) {
	var recs []analytics.ProgressionRecommendation
	if err := c.get(ctx, "/api/v1/recommendations", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) DeloadCheck(ctx context.Context, _ int, exerciseID string) (analytics.DeloadAssessment, error) {
	var a analytics.DeloadAssessment
	err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(exerciseID)+"/deload", nil, &a)
	return a, err
}

func (c *HTTPClient) Progress(ctx context.Context, _ int) ([]analytics.Progress, error) {
	var p []analytics.Progress
	if err := c.get(ctx, "/api/v1/progress", nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// WeeklyStats uses the server's clock; now is ignored.
func (c *HTTPClient) WeeklyStats(ctx context.Context, _ int, _ time.Time) (performance.WeeklyStats, error) {
	var s performance.WeeklyStats
	err := c.get(ctx, "/api/v1/weekly", nil, &s)
	return s, err
}

func (c *HTTPClient) LatestRecovery(ctx context.Context, _ int) (models.RecoveryCheckinRow, error) {
	var r models.RecoveryCheckinRow
	err := c.get(ctx, "/api/v1/recovery/latest", nil, &r)
	return r, err
}

func (c *HTTPClient) Dashboard(ctx context.Context, _ int) (performance.Dashboard, error) {
	var d performance.Dashboard
	err := c.get(ctx, "/api/v1/dashboard", nil, &d)
	return d, err
}
