// Package snapshot loads the dashboard data outside the TUI, for robot
// output and exports. Loading has the same semantics as the dashboard:
// the insights and metrics reads run concurrently and independently, and
// a failed read leaves its collection empty instead of failing the whole
// snapshot.
package snapshot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/model"
)

// Source is the subset of the backend client a snapshot needs.
type Source interface {
	Insights(ctx context.Context) ([]model.Insight, error)
	Metrics(ctx context.Context) ([]model.Metric, error)
}

// Snapshot is one fetch of both collections.
type Snapshot struct {
	BaseURL   string          `json:"base_url,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
	Insights  []model.Insight `json:"insights"`
	Metrics   []model.Metric  `json:"metrics"`
	Failed    []string        `json:"failed,omitempty"` // "insights" and/or "metrics"
}

// Load fetches insights and metrics concurrently. Failures are logged on
// the diagnostic channel and recorded in Failed; Load itself never fails.
func Load(ctx context.Context, src Source) Snapshot {
	defer debug.LogEnterExit("snapshot.Load")()

	snap := Snapshot{
		FetchedAt: time.Now().UTC(),
		Insights:  []model.Insight{},
		Metrics:   []model.Metric{},
	}
	var insightsErr, metricsErr error

	var g errgroup.Group
	g.Go(func() error {
		items, err := src.Insights(ctx)
		if err != nil {
			insightsErr = err
			return nil
		}
		if items != nil {
			snap.Insights = items
		}
		return nil
	})
	g.Go(func() error {
		items, err := src.Metrics(ctx)
		if err != nil {
			metricsErr = err
			return nil
		}
		if items != nil {
			snap.Metrics = items
		}
		return nil
	})
	_ = g.Wait()

	if insightsErr != nil {
		debug.Errorf("fetch insights: %v", insightsErr)
		snap.Failed = append(snap.Failed, "insights")
	}
	if metricsErr != nil {
		debug.Errorf("fetch metrics: %v", metricsErr)
		snap.Failed = append(snap.Failed, "metrics")
	}
	return snap
}

// OK reports whether both reads succeeded.
func (s Snapshot) OK() bool {
	return len(s.Failed) == 0
}
