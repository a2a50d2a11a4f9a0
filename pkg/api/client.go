// Package api is the HTTP client for the product intelligence backend.
//
// The client is deliberately thin: one request per call, no retry, no
// caching and no timeout unless one is configured. Every failure collapses
// into ErrRequestFailed; callers decide whether to log or surface it.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/metrics"
	"github.com/vanderheijden86/prodintel/pkg/model"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 32 << 20

// Client talks to a single backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// NewClient returns a client for baseURL (e.g. "http://localhost:8000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// InsightQuery filters an insight listing. Zero values are omitted.
type InsightQuery struct {
	Type     string
	Severity string
	Resolved string
	Limit    int
}

func (q InsightQuery) values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("insight_type", q.Type)
	}
	if q.Severity != "" {
		v.Set("severity", q.Severity)
	}
	if q.Resolved != "" {
		v.Set("resolved", q.Resolved)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// MetricQuery filters a metric listing. Zero values are omitted.
type MetricQuery struct {
	Type  string
	Limit int
}

func (q MetricQuery) values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("metric_type", q.Type)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Insights fetches GET /api/insights/ with no parameters.
func (c *Client) Insights(ctx context.Context) ([]model.Insight, error) {
	return c.ListInsights(ctx, InsightQuery{})
}

// ListInsights fetches GET /api/insights/ with optional filters.
func (c *Client) ListInsights(ctx context.Context, q InsightQuery) ([]model.Insight, error) {
	var out struct {
		Insights *[]model.Insight `json:"insights"`
	}
	if err := c.do(ctx, call{
		op:     "insights",
		method: http.MethodGet,
		path:   "/api/insights/",
		query:  q.values(),
		metric: metrics.FetchInsights,
	}, &out); err != nil {
		return nil, err
	}
	if out.Insights == nil {
		return nil, c.malformed("insights", http.MethodGet, "/api/insights/", `missing "insights"`)
	}
	return *out.Insights, nil
}

// Metrics fetches GET /api/metrics/all with no parameters.
func (c *Client) Metrics(ctx context.Context) ([]model.Metric, error) {
	return c.ListMetrics(ctx, MetricQuery{})
}

// ListMetrics fetches GET /api/metrics/all with optional filters.
func (c *Client) ListMetrics(ctx context.Context, q MetricQuery) ([]model.Metric, error) {
	var out struct {
		Metrics *[]model.Metric `json:"metrics"`
	}
	if err := c.do(ctx, call{
		op:     "metrics",
		method: http.MethodGet,
		path:   "/api/metrics/all",
		query:  q.values(),
		metric: metrics.FetchMetrics,
	}, &out); err != nil {
		return nil, err
	}
	if out.Metrics == nil {
		return nil, c.malformed("metrics", http.MethodGet, "/api/metrics/all", `missing "metrics"`)
	}
	return *out.Metrics, nil
}

// Ask posts a question to /api/query/ask. The question is sent verbatim.
func (c *Client) Ask(ctx context.Context, question string) (model.Answer, error) {
	var out struct {
		Question string  `json:"question"`
		Answer   *string `json:"answer"`
	}
	if err := c.do(ctx, call{
		op:     "ask",
		method: http.MethodPost,
		path:   "/api/query/ask",
		body:   map[string]string{"question": question},
		metric: metrics.AskQuestion,
	}, &out); err != nil {
		return model.Answer{}, err
	}
	if out.Answer == nil {
		return model.Answer{}, c.malformed("ask", http.MethodPost, "/api/query/ask", `missing "answer"`)
	}
	q := out.Question
	if q == "" {
		q = question
	}
	return model.Answer{Question: q, Answer: *out.Answer}, nil
}

// AnalyzeMetric asks the backend to explain a metric's recent history.
func (c *Client) AnalyzeMetric(ctx context.Context, name string) (model.Analysis, error) {
	var out model.Analysis
	err := c.do(ctx, call{
		op:     "analyze",
		method: http.MethodPost,
		path:   "/api/query/analyze",
		query:  url.Values{"metric_name": {name}},
		metric: metrics.AnalyzeMetric,
	}, &out)
	return out, err
}

// ResolveInsight marks an insight as resolved.
func (c *Client) ResolveInsight(ctx context.Context, id model.ID) error {
	if id == "" {
		return c.malformed("resolve", http.MethodPost, "/api/insights/{id}/resolve", "empty insight id")
	}
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, call{
		op:     "resolve",
		method: http.MethodPost,
		path:   "/api/insights/" + url.PathEscape(string(id)) + "/resolve",
		metric: metrics.ResolveInsight,
	}, &out)
}

// InsightStats fetches the backend's insight summary counts.
func (c *Client) InsightStats(ctx context.Context) (model.InsightStats, error) {
	var out model.InsightStats
	err := c.do(ctx, call{
		op:     "insight-stats",
		method: http.MethodGet,
		path:   "/api/insights/summary/stats",
		metric: metrics.InsightStats,
	}, &out)
	return out, err
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (model.Health, error) {
	var out model.Health
	err := c.do(ctx, call{
		op:     "health",
		method: http.MethodGet,
		path:   "/health",
		metric: metrics.HealthCheck,
	}, &out)
	return out, err
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	metric *metrics.TimingMetric
}

// errorBody is how the backend reports "not found" with a 200 status.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	defer metrics.Timer(cl.metric)()

	reqID := c.newID()
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	fail := func(status int, cause error) error {
		if cl.metric != nil {
			cl.metric.RecordFailure()
		}
		return &RequestError{
			Op:        cl.op,
			Method:    cl.method,
			URL:       target,
			Status:    status,
			RequestID: reqID,
			Err:       cause,
		}
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fail(0, fmt.Errorf("encoding body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()
	debug.Log("%s %s -> %d in %v (request %s)", cl.method, target, resp.StatusCode, time.Since(start), reqID)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errors.New(snippet(data)))
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decoding body: %w", err))
	}
	if eb.Error != "" {
		return fail(resp.StatusCode, fmt.Errorf("backend error: %s", eb.Error))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

func (c *Client) malformed(op, method, path, reason string) error {
	return &RequestError{
		Op:     op,
		Method: method,
		URL:    c.baseURL + path,
		Err:    errors.New(reason),
	}
}

const snippetWidth = 200

// snippet is a one-line preview of a response body for the diagnostic log.
func snippet(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if s == "" {
		return "empty body"
	}
	return runewidth.Truncate(s, snippetWidth, "…")
}
