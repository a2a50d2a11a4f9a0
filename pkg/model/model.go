// Package model holds the records pi reads from the product intelligence
// backend. They are transient snapshots: pi never validates or normalizes
// them and keeps them in the order the server returned.
package model

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ID is an opaque record identifier. The backend sends integers but any
// JSON string or number is accepted.
type ID string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer IDs back as numbers. Anything else,
// including "007" and "+5", stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Insight is a server-computed observation about product usage.
type Insight struct {
	ID             ID             `json:"id"`
	InsightType    string         `json:"insight_type,omitempty"`
	Severity       string         `json:"severity"`
	Title          string         `json:"title"`
	DetectedAt     string         `json:"detected_at,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	LLMExplanation string         `json:"llm_explanation,omitempty"`
	Resolved       string         `json:"resolved,omitempty"` // "pending" or "resolved"
	CreatedAt      string         `json:"created_at,omitempty"`
}

// UnmarshalJSON decodes an insight without failing on a severity that is
// not a string. Such a value is kept as its raw JSON text and classifies
// into the default bucket, so one odd record never drops the whole list.
func (i *Insight) UnmarshalJSON(data []byte) error {
	var w struct {
		ID             ID              `json:"id"`
		InsightType    string          `json:"insight_type"`
		Severity       json.RawMessage `json:"severity"`
		Title          string          `json:"title"`
		DetectedAt     string          `json:"detected_at"`
		Data           map[string]any  `json:"data"`
		LLMExplanation string          `json:"llm_explanation"`
		Resolved       string          `json:"resolved"`
		CreatedAt      string          `json:"created_at"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = Insight{
		ID:             w.ID,
		InsightType:    w.InsightType,
		Severity:       severityText(w.Severity),
		Title:          w.Title,
		DetectedAt:     w.DetectedAt,
		Data:           w.Data,
		LLMExplanation: w.LLMExplanation,
		Resolved:       w.Resolved,
		CreatedAt:      w.CreatedAt,
	}
	return nil
}

func severityText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// HasExplanation reports whether the insight carries explanatory text.
func (i Insight) HasExplanation() bool {
	return strings.TrimSpace(i.LLMExplanation) != ""
}

// Metric is a single named, typed, dated numeric measurement.
type Metric struct {
	ID         ID             `json:"id"`
	MetricName string         `json:"metric_name"`
	MetricType string         `json:"metric_type"`
	Value      float64        `json:"value"`
	Date       string         `json:"date"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ComputedAt string         `json:"computed_at,omitempty"`
}

// Answer is the backend's reply to a free-text question.
type Answer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

// Analysis is the backend's narrative for a single metric's history.
type Analysis struct {
	Metric   string `json:"metric"`
	Analysis string `json:"analysis"`
}

// InsightStats mirrors the backend's insight summary counts.
type InsightStats struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
}

// SyncState is the ingestion status of one analytics source.
type SyncState struct {
	Source   string         `json:"source"`
	LastSync string         `json:"last_sync,omitempty"` // empty when never synced
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Health is the backend liveness payload.
type Health struct {
	Status string `json:"status"`
}

// Healthy reports whether the backend said it is healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// ParseTime parses the timestamp formats the backend emits. Naive ISO
// timestamps (no zone) are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
