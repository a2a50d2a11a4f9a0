package robot

import (
	"io"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/prodintel/pkg/model"
	"github.com/vanderheijden86/prodintel/pkg/snapshot"
	"github.com/vanderheijden86/prodintel/pkg/version"
)

// Header is embedded in every robot document.
type Header struct {
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
	BaseURL     string `json:"base_url"`
}

// NewHeader stamps a document with the current time and pi version.
func NewHeader(baseURL string) Header {
	return Header{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Version:     version.Version,
		BaseURL:     baseURL,
	}
}

// InsightsOutput is the --robot-insights document. Failed is set when the
// read failed; Insights is then empty rather than absent.
type InsightsOutput struct {
	Header
	Count    int             `json:"count"`
	Insights []model.Insight `json:"insights"`
	Failed   bool            `json:"failed,omitempty"`
}

// MetricsOutput is the --robot-metrics and --robot-metric-view document.
// View names the metric view, when one was read.
type MetricsOutput struct {
	Header
	View    string         `json:"view,omitempty"`
	Count   int            `json:"count"`
	Metrics []model.Metric `json:"metrics"`
	Failed  bool           `json:"failed,omitempty"`
}

// InsightOutput is the --robot-insight document. Insight is null when the
// read failed.
type InsightOutput struct {
	Header
	ID      string         `json:"id"`
	Insight *model.Insight `json:"insight"`
	Failed  bool           `json:"failed,omitempty"`
}

// SyncStatusOutput is the --robot-sync-status document.
type SyncStatusOutput struct {
	Header
	Count      int               `json:"count"`
	SyncStates []model.SyncState `json:"sync_states"`
	Failed     bool              `json:"failed,omitempty"`
}

// SnapshotOutput is the --robot-snapshot document.
type SnapshotOutput struct {
	Header
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// SummaryOutput is the --robot-summary document.
type SummaryOutput struct {
	Header
	Summary snapshot.Summary `json:"summary"`
}

// StatsOutput is the --robot-stats document.
type StatsOutput struct {
	Header
	Stats model.InsightStats `json:"stats"`
}

// AskOutput is the --robot-ask document.
type AskOutput struct {
	Header
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnalysisOutput is the --robot-analyze document.
type AnalysisOutput struct {
	Header
	Metric   string `json:"metric"`
	Analysis string `json:"analysis"`
}

// HealthOutput is the --check document in robot mode.
type HealthOutput struct {
	Header
	Status  string `json:"status"`
	Healthy bool   `json:"healthy"`
}

// Write encodes v as indented JSON followed by a newline.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
