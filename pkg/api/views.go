package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vanderheijden86/prodintel/pkg/metrics"
	"github.com/vanderheijden86/prodintel/pkg/model"
)

// MetricView names one of the backend's pre-filtered metric endpoints
// under /api/metrics/.
type MetricView string

const (
	ViewDAU             MetricView = "dau"
	ViewRetention       MetricView = "retention"
	ViewFeatureAdoption MetricView = "feature-adoption"
	ViewFunnel          MetricView = "funnel"
)

// MetricViews lists the views in the order help text shows them.
var MetricViews = []MetricView{ViewDAU, ViewRetention, ViewFeatureAdoption, ViewFunnel}

// ParseMetricView accepts a view name, case-insensitively.
func ParseMetricView(s string) (MetricView, error) {
	v := MetricView(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MetricViews {
		if v == known {
			return v, nil
		}
	}
	names := make([]string, len(MetricViews))
	for i, known := range MetricViews {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown metric view %q (want one of %s)", s, strings.Join(names, ", "))
}

// MetricViewQuery selects a view and its filters. Filters that do not
// apply to the view are ignored.
type MetricViewQuery struct {
	View    MetricView
	Start   string // dau: start_date, ISO date
	End     string // dau: end_date, ISO date
	Cohort  string // retention: cohort_date
	Feature string // feature-adoption
	Funnel  string // funnel: funnel_name, required
}

func (q MetricViewQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	switch q.View {
	case ViewDAU:
		set("start_date", q.Start)
		set("end_date", q.End)
	case ViewRetention:
		set("cohort_date", q.Cohort)
	case ViewFeatureAdoption:
		set("feature", q.Feature)
	case ViewFunnel:
		set("funnel_name", q.Funnel)
	}
	return v
}

// viewRow is a metric as the view endpoints send it: fewer fields than
// /api/metrics/all, plus "feature" on the adoption view.
type viewRow struct {
	ID         model.ID       `json:"id"`
	MetricName string         `json:"metric_name"`
	MetricType string         `json:"metric_type"`
	Feature    string         `json:"feature"`
	Value      float64        `json:"value"`
	Date       string         `json:"date"`
	Metadata   map[string]any `json:"metadata"`
	ComputedAt string         `json:"computed_at"`
}

// MetricView fetches GET /api/metrics/{view}. Rows come back as Metrics;
// a name or type the view implies but does not send is filled in.
func (c *Client) MetricView(ctx context.Context, q MetricViewQuery) ([]model.Metric, error) {
	path := "/api/metrics/" + string(q.View)
	if _, err := ParseMetricView(string(q.View)); err != nil {
		return nil, c.malformed("metric-view", http.MethodGet, path, err.Error())
	}
	if q.View == ViewFunnel && q.Funnel == "" {
		return nil, c.malformed("metric-view", http.MethodGet, path, "funnel view needs a funnel name")
	}

	var out struct {
		Metrics *[]viewRow `json:"metrics"`
	}
	if err := c.do(ctx, call{
		op:     "metric-view",
		method: http.MethodGet,
		path:   path,
		query:  q.values(),
		metric: metrics.MetricView,
	}, &out); err != nil {
		return nil, err
	}
	if out.Metrics == nil {
		return nil, c.malformed("metric-view", http.MethodGet, path, `missing "metrics"`)
	}

	rows := make([]model.Metric, 0, len(*out.Metrics))
	for _, r := range *out.Metrics {
		m := model.Metric{
			ID:         r.ID,
			MetricName: r.MetricName,
			MetricType: r.MetricType,
			Value:      r.Value,
			Date:       r.Date,
			Metadata:   r.Metadata,
			ComputedAt: r.ComputedAt,
		}
		switch q.View {
		case ViewDAU:
			if m.MetricName == "" {
				m.MetricName = "dau"
			}
		case ViewRetention:
			if m.MetricType == "" {
				m.MetricType = "retention"
			}
		case ViewFeatureAdoption:
			if m.MetricName == "" {
				m.MetricName = r.Feature
			}
			if m.MetricType == "" {
				m.MetricType = "feature_adoption"
			}
		case ViewFunnel:
			if m.MetricName == "" {
				m.MetricName = q.Funnel
			}
			if m.MetricType == "" {
				m.MetricType = "funnel"
			}
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// Insight fetches a single insight by id. The backend answers an unknown
// id with an error body, which fails like any other request.
func (c *Client) Insight(ctx context.Context, id model.ID) (model.Insight, error) {
	if id == "" {
		return model.Insight{}, c.malformed("insight", http.MethodGet, "/api/insights/{id}", "empty insight id")
	}
	var out model.Insight
	err := c.do(ctx, call{
		op:     "insight",
		method: http.MethodGet,
		path:   "/api/insights/" + url.PathEscape(string(id)),
		metric: metrics.FetchInsight,
	}, &out)
	return out, err
}

// SyncStatus fetches GET /api/ingestion/status, the last sync of every
// analytics source the backend ingests from.
func (c *Client) SyncStatus(ctx context.Context) ([]model.SyncState, error) {
	var out struct {
		SyncStates *[]model.SyncState `json:"sync_states"`
	}
	if err := c.do(ctx, call{
		op:     "sync-status",
		method: http.MethodGet,
		path:   "/api/ingestion/status",
		metric: metrics.SyncStatus,
	}, &out); err != nil {
		return nil, err
	}
	if out.SyncStates == nil {
		return nil, c.malformed("sync-status", http.MethodGet, "/api/ingestion/status", `missing "sync_states"`)
	}
	return *out.SyncStates, nil
}
