package snapshot

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vanderheijden86/prodintel/pkg/model"
)

type fakeSource struct {
	insights    []model.Insight
	metrics     []model.Metric
	insightsErr error
	metricsErr  error
	started     atomic.Int32
	gate        chan struct{}
}

func (f *fakeSource) Insights(ctx context.Context) ([]model.Insight, error) {
	f.wait()
	return f.insights, f.insightsErr
}

func (f *fakeSource) Metrics(ctx context.Context) ([]model.Metric, error) {
	f.wait()
	return f.metrics, f.metricsErr
}

// wait blocks until both fetches have started, proving they run concurrently.
func (f *fakeSource) wait() {
	if f.gate == nil {
		return
	}
	if f.started.Add(1) == 2 {
		close(f.gate)
	}
	<-f.gate
}

func TestLoadFetchesConcurrently(t *testing.T) {
	src := &fakeSource{
		insights: []model.Insight{{ID: "1", Title: "A", Severity: "high"}},
		metrics:  []model.Metric{{ID: "1", MetricName: "dau", Value: 10}},
		gate:     make(chan struct{}),
	}

	done := make(chan Snapshot, 1)
	go func() { done <- Load(context.Background(), src) }()

	select {
	case snap := <-done:
		if !snap.OK() {
			t.Fatalf("unexpected failures %v", snap.Failed)
		}
		if len(snap.Insights) != 1 || len(snap.Metrics) != 1 {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Load deadlocked: fetches are not concurrent")
	}
}

func TestLoadPartialFailure(t *testing.T) {
	src := &fakeSource{
		insightsErr: errors.New("request failed"),
		metrics:     []model.Metric{{ID: "1", MetricName: "dau", Value: 10}},
	}

	snap := Load(context.Background(), src)
	if snap.OK() {
		t.Fatal("expected failure to be recorded")
	}
	if len(snap.Failed) != 1 || snap.Failed[0] != "insights" {
		t.Fatalf("Failed = %v", snap.Failed)
	}
	if snap.Insights == nil || len(snap.Insights) != 0 {
		t.Fatalf("failed collection should be empty, got %#v", snap.Insights)
	}
	if len(snap.Metrics) != 1 {
		t.Fatalf("metrics should still load, got %d", len(snap.Metrics))
	}
}

func TestLoadBothFail(t *testing.T) {
	src := &fakeSource{insightsErr: errors.New("a"), metricsErr: errors.New("b")}
	snap := Load(context.Background(), src)
	if len(snap.Failed) != 2 {
		t.Fatalf("Failed = %v", snap.Failed)
	}
}

func TestSummarize(t *testing.T) {
	snap := Snapshot{
		Insights: []model.Insight{
			{Severity: "critical", InsightType: "anomaly", Resolved: "pending"},
			{Severity: "high", InsightType: "anomaly", Resolved: "resolved"},
			{Severity: "weird", InsightType: "trend", Resolved: "pending"},
		},
		Metrics: []model.Metric{
			{MetricType: "retention", Value: 10},
			{MetricType: "retention", Value: 20},
			{MetricType: "retention", Value: 30},
			{MetricType: "engagement", Value: 5},
		},
	}

	s := Summarize(snap)
	if s.Insights.Total != 3 {
		t.Errorf("total = %d", s.Insights.Total)
	}
	if s.Insights.ByType["anomaly"] != 2 || s.Insights.ByStatus["pending"] != 2 {
		t.Errorf("unexpected counts %+v", s.Insights)
	}
	if s.Insights.ByLevel["critical"] != 1 || s.Insights.ByLevel["high"] != 1 || s.Insights.ByLevel["default"] != 1 {
		t.Errorf("unexpected levels %+v", s.Insights.ByLevel)
	}

	if len(s.Metrics) != 2 {
		t.Fatalf("expected 2 metric types, got %d", len(s.Metrics))
	}
	eng, ret := s.Metrics[0], s.Metrics[1]
	if eng.Type != "engagement" || eng.Count != 1 || eng.Mean != 5 || eng.StdDev != 0 {
		t.Errorf("engagement summary %+v", eng)
	}
	if ret.Type != "retention" || ret.Count != 3 || ret.Mean != 20 || ret.Min != 10 || ret.Max != 30 {
		t.Errorf("retention summary %+v", ret)
	}
	if math.Abs(ret.StdDev-10) > 1e-9 {
		t.Errorf("retention stddev = %v, want 10", ret.StdDev)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(Snapshot{})
	if s.Insights.Total != 0 || s.Metrics == nil || len(s.Metrics) != 0 {
		t.Fatalf("unexpected empty summary %+v", s)
	}
}
