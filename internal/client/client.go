// Package client calls the IronLog REST API. It backs the CLI and the MCP
// server when the data lives on a remote instance reached over the tailnet.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/analysis"
	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// Client talks to one IronLog server. The userID arguments on its methods
// are ignored: the server resolves the caller itself.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key as X-API-Key on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default 30s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client targeting baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Unwrap maps the status onto the domain error it came from.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return models.ErrInvalidInput
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusBadGateway:
		return models.ErrPersistence
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string, dst any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Path: path, Status: resp.StatusCode, Body: msg}
	}
	if dst == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, "", dst)
}

// ListWorkouts returns the user's history, newest first.
func (c *Client) ListWorkouts(ctx context.Context, _ int) ([]models.Workout, error) {
	var ws []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// GetWorkout returns one workout.
func (c *Client) GetWorkout(ctx context.Context, _ int, id string) (models.Workout, error) {
	var w models.Workout
	err := c.get(ctx, "/api/v1/workouts/"+url.PathEscape(id), nil, &w)
	return w, err
}

// WorkoutInsights returns the analysis of one workout against the history.
func (c *Client) WorkoutInsights(ctx context.Context, _ int, id string) (*analysis.Insights, error) {
	var in analysis.Insights
	if err := c.get(ctx, "/api/v1/workouts/"+url.PathEscape(id)+"/insights", nil, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Chart builds one chart on the server.
func (c *Client) Chart(ctx context.Context, _ int, t models.GraphType, r models.TimeRange, exerciseID string) (*dashboard.Chart, error) {
	params := url.Values{}
	if r != "" {
		params.Set("range", string(r))
	}
	if exerciseID != "" {
		params.Set("exercise_id", exerciseID)
	}
	var ch dashboard.Chart
	if err := c.get(ctx, "/api/v1/charts/"+url.PathEscape(string(t)), params, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Dashboard returns every configured dashboard graph, built.
func (c *Client) Dashboard(ctx context.Context) ([]dashboard.Chart, error) {
	var charts []dashboard.Chart
	if err := c.get(ctx, "/api/v1/dashboard", nil, &charts); err != nil {
		return nil, err
	}
	return charts, nil
}

// ListExercises searches the exercise library. Empty filters match all.
func (c *Client) ListExercises(ctx context.Context, _ int, query string, muscle models.MuscleGroup) ([]models.Exercise, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if muscle != "" {
		params.Set("muscle", string(muscle))
	}
	var es []models.Exercise
	if err := c.get(ctx, "/api/v1/exercises", params, &es); err != nil {
		return nil, err
	}
	return es, nil
}

// ListRoutines returns the user's routines, newest first.
func (c *Client) ListRoutines(ctx context.Context, _ int) ([]models.Routine, error) {
	var rs []models.Routine
	if err := c.get(ctx, "/api/v1/routines", nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// ListPersonalRecords returns the best record per exercise.
func (c *Client) ListPersonalRecords(ctx context.Context, _ int) ([]models.PersonalRecordRow, error) {
	var prs []models.PersonalRecordRow
	if err := c.get(ctx, "/api/v1/records", nil, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// GetDataStats returns aggregate statistics.
func (c *Client) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	var st storage.DataStats
	if err := c.get(ctx, "/api/v1/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ImportAlpha uploads an Alpha Progression CSV export.
func (c *Client) ImportAlpha(ctx context.Context, csv []byte) (*ingest.Result, error) {
	var res ingest.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/import/alpha", nil, bytes.NewReader(csv), "text/csv", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListImports returns the most recent import logs. limit <= 0 uses the server default.
func (c *Client) ListImports(ctx context.Context, limit int) ([]storage.ImportLog, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var logs []storage.ImportLog
	if err := c.get(ctx, "/api/v1/imports", params, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
