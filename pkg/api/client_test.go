package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/prodintel/pkg/model"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestInsightsDecodesServerOrder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/insights/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("expected no parameters, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		io.WriteString(w, `{"insights":[
			{"id":2,"title":"B","severity":"high"},
			{"id":1,"title":"A","severity":"critical","llm_explanation":"why"}
		]}`)
	})

	got, err := c.Insights(context.Background())
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	want := []model.Insight{
		{ID: "2", Title: "B", Severity: "high"},
		{ID: "1", Title: "A", Severity: "critical", LLMExplanation: "why"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("insights mismatch (-want +got):\n%s", diff)
	}
}

func TestListInsightsSendsFilters(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("severity") != "critical" || q.Get("insight_type") != "anomaly" || q.Get("limit") != "5" || q.Get("resolved") != "pending" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		io.WriteString(w, `{"insights":[]}`)
	})

	got, err := c.ListInsights(context.Background(), InsightQuery{Type: "anomaly", Severity: "critical", Resolved: "pending", Limit: 5})
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMetricsDecodes(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/metrics/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"metrics":[{"id":9,"metric_name":"dau","metric_type":"engagement","value":1234.5,"date":"2024-03-01T00:00:00","metadata":{"period":"daily"}}]}`)
	})

	got, err := c.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	want := []model.Metric{{
		ID:         "9",
		MetricName: "dau",
		MetricType: "engagement",
		Value:      1234.5,
		Date:       "2024-03-01T00:00:00",
		Metadata:   map[string]any{"period": "daily"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestListMetricsSendsFilters(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("metric_type") != "retention" || r.URL.Query().Get("limit") != "3" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		io.WriteString(w, `{"metrics":[]}`)
	})
	if _, err := c.ListMetrics(context.Background(), MetricQuery{Type: "retention", Limit: 3}); err != nil {
		t.Fatalf("ListMetrics: %v", err)
	}
}

func TestAskPostsQuestionVerbatim(t *testing.T) {
	questions := []string{"Why did trial users churn last week?", "", strings.Repeat("x", 10000)}
	for _, question := range questions {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/query/ask" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type %q", ct)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
				return
			}
			if len(body) != 1 || body["question"] != question {
				t.Errorf("unexpected body %v", body)
			}
			json.NewEncoder(w).Encode(map[string]string{"question": question, "answer": "X"})
		})

		got, err := c.Ask(context.Background(), question)
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		if got.Answer != "X" || got.Question != question {
			t.Fatalf("unexpected answer %+v", got)
		}
	}
}

func TestFailuresCollapseToRequestFailed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}, http.StatusInternalServerError},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}, http.StatusNotFound},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"insights": [`)
		}, http.StatusOK},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"insights": "nope"}`)
		}, http.StatusOK},
		{"missing key", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"items": []}`)
		}, 0},
		{"backend error body", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"error": "Insight not found"}`)
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			_, err := c.Insights(context.Background())
			if !errors.Is(err, ErrRequestFailed) {
				t.Fatalf("expected ErrRequestFailed, got %v", err)
			}
			var re *RequestError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
			if re.Op != "insights" || re.Status != tt.status {
				t.Errorf("unexpected detail op=%q status=%d", re.Op, re.Status)
			}
		})
	}
}

func TestNetworkErrorIsRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Metrics(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, "slow?")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrRequestFailed) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled request failure, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Ask did not return after cancel")
	}
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	if _, err := c.Health(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
}

func TestResolveInsight(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/insights/17/resolve" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"status":"resolved"}`)
	})

	if err := c.ResolveInsight(context.Background(), "17"); err != nil {
		t.Fatalf("ResolveInsight: %v", err)
	}
	if err := c.ResolveInsight(context.Background(), ""); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected failure for empty id, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one backend call, got %d", calls.Load())
	}
}

func TestInsightStatsAnalyzeAndHealth(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/insights/summary/stats":
			io.WriteString(w, `{"total":3,"by_type":{"anomaly":3},"by_severity":{"high":2,"critical":1},"by_status":{"pending":3}}`)
		case "/api/query/analyze":
			if r.URL.Query().Get("metric_name") != "dau" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			io.WriteString(w, `{"metric":"dau","analysis":"flat"}`)
		case "/health":
			io.WriteString(w, `{"status":"healthy"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	stats, err := c.InsightStats(ctx)
	if err != nil {
		t.Fatalf("InsightStats: %v", err)
	}
	if stats.Total != 3 || stats.BySeverity["high"] != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	a, err := c.AnalyzeMetric(ctx, "dau")
	if err != nil || a.Analysis != "flat" {
		t.Errorf("AnalyzeMetric = %+v, %v", a, err)
	}

	h, err := c.Health(ctx)
	if err != nil || !h.Healthy() {
		t.Errorf("Health = %+v, %v", h, err)
	}
}

func TestBaseURLTrimmed(t *testing.T) {
	if got := NewClient("http://x:8000///").BaseURL(); got != "http://x:8000" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestSnippetCutsOnRuneBoundaries(t *testing.T) {
	if got := snippet([]byte("  \n ")); got != "empty body" {
		t.Fatalf("blank body = %q", got)
	}
	if got := snippet([]byte("{\"error\":\n  \"nope\"}")); got != `{"error": "nope"}` {
		t.Fatalf("short body = %q", got)
	}

	long := snippet([]byte(strings.Repeat("é", 150) + strings.Repeat("日", 100)))
	if !utf8.ValidString(long) {
		t.Fatalf("snippet split a rune: %q", long)
	}
	if !strings.HasSuffix(long, "…") {
		t.Fatalf("long body should be marked as cut: %q", long)
	}
	if w := runewidth.StringWidth(long); w > snippetWidth {
		t.Fatalf("snippet width %d exceeds %d", w, snippetWidth)
	}
}
