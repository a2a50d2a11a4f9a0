// Package metrics provides performance instrumentation for pi.
//
// Every backend call is timed so slow endpoints show up in the debug log:
//
//	func (c *Client) Insights(ctx context.Context) ([]model.Insight, error) {
//	    defer metrics.Timer(metrics.FetchInsights)()
//	    // ...
//	}
//
// Metrics are collected in-memory with atomic operations for thread-safety.
// Collection is enabled by default but can be disabled via PI_METRICS=0.
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

// enabled controls whether metrics are collected.
// Defaults to true unless PI_METRICS=0 is set.
var enabled = os.Getenv("PI_METRICS") != "0"

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled = e
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are thread-safe using atomic operations.
type TimingMetric struct {
	name     string
	count    int64
	failures int64
	totalNs  int64
	maxNs    int64
	minNs    int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled {
		return
	}
	ns := d.Nanoseconds()

	atomic.AddInt64(&m.count, 1)
	atomic.AddInt64(&m.totalNs, ns)

	for {
		old := atomic.LoadInt64(&m.maxNs)
		if ns <= old || atomic.CompareAndSwapInt64(&m.maxNs, old, ns) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.minNs)
		if old != 0 && ns >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minNs, old, ns) {
			break
		}
	}
}

// RecordFailure counts a failed call. The duration is still recorded by Timer.
func (m *TimingMetric) RecordFailure() {
	if !enabled {
		return
	}
	atomic.AddInt64(&m.failures, 1)
}

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 {
	return atomic.LoadInt64(&m.count)
}

// Failures returns the number of failed calls.
func (m *TimingMetric) Failures() int64 {
	return atomic.LoadInt64(&m.failures)
}

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := atomic.LoadInt64(&m.count)
	totalNs := atomic.LoadInt64(&m.totalNs)
	maxNs := atomic.LoadInt64(&m.maxNs)
	minNs := atomic.LoadInt64(&m.minNs)

	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}

	return TimingStats{
		Name:     m.name,
		Count:    count,
		Failures: atomic.LoadInt64(&m.failures),
		TotalMs:  float64(totalNs) / 1e6,
		AvgMs:    float64(avgNs) / 1e6,
		MaxMs:    float64(maxNs) / 1e6,
		MinMs:    float64(minNs) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	atomic.StoreInt64(&m.count, 0)
	atomic.StoreInt64(&m.failures, 0)
	atomic.StoreInt64(&m.totalNs, 0)
	atomic.StoreInt64(&m.maxNs, 0)
	atomic.StoreInt64(&m.minNs, 0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name     string  `json:"name"`
	Count    int64   `json:"count"`
	Failures int64   `json:"failures"`
	TotalMs  float64 `json:"total_ms"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	MinMs    float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called.
// Use with defer for automatic timing:
//
//	defer metrics.Timer(metrics.AskQuestion)()
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Global timing metrics, one per backend operation.
var (
	FetchInsights  = newTimingMetric("fetch_insights")
	FetchMetrics   = newTimingMetric("fetch_metrics")
	FetchInsight   = newTimingMetric("fetch_insight")
	MetricView     = newTimingMetric("metric_view")
	SyncStatus     = newTimingMetric("sync_status")
	AskQuestion    = newTimingMetric("ask_question")
	AnalyzeMetric  = newTimingMetric("analyze_metric")
	ResolveInsight = newTimingMetric("resolve_insight")
	InsightStats   = newTimingMetric("insight_stats")
	HealthCheck    = newTimingMetric("health_check")
	UIRender       = newTimingMetric("ui_render")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		FetchInsights,
		FetchMetrics,
		FetchInsight,
		MetricView,
		SyncStatus,
		AskQuestion,
		AnalyzeMetric,
		ResolveInsight,
		InsightStats,
		HealthCheck,
		UIRender,
	}
}

// ResetAll resets all timing metrics.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}

// AllTimingStats returns stats for all timing metrics that have data.
func AllTimingStats() []TimingStats {
	metrics := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(metrics))
	for _, m := range metrics {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
