package snapshot

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a snapshot for the --robot-summary output.
type Summary struct {
	Insights InsightSummary      `json:"insights"`
	Metrics  []MetricTypeSummary `json:"metrics"`
	Failed   []string            `json:"failed,omitempty"`
}

// InsightSummary counts insights the way the backend's stats endpoint does,
// plus the visual severity buckets the dashboard uses.
type InsightSummary struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
	ByLevel    map[string]int `json:"by_level"`
}

// MetricTypeSummary describes the values of one metric type.
type MetricTypeSummary struct {
	Type   string  `json:"type"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes counts and per-type value statistics.
func Summarize(s Snapshot) Summary {
	out := Summary{
		Insights: InsightSummary{
			Total:      len(s.Insights),
			ByType:     map[string]int{},
			BySeverity: map[string]int{},
			ByStatus:   map[string]int{},
			ByLevel:    map[string]int{},
		},
		Metrics: []MetricTypeSummary{},
		Failed:  s.Failed,
	}

	for _, in := range s.Insights {
		out.Insights.ByType[in.InsightType]++
		out.Insights.BySeverity[in.Severity]++
		out.Insights.ByStatus[in.Resolved]++
		out.Insights.ByLevel[in.Level().String()]++
	}

	byType := make(map[string][]float64)
	for _, m := range s.Metrics {
		byType[m.MetricType] = append(byType[m.MetricType], m.Value)
	}
	types := make([]string, 0, len(byType))
	for typ := range byType {
		types = append(types, typ)
	}
	sort.Strings(types)

	for _, typ := range types {
		out.Metrics = append(out.Metrics, summarizeValues(typ, byType[typ]))
	}
	return out
}

func summarizeValues(typ string, values []float64) MetricTypeSummary {
	sum := MetricTypeSummary{Type: typ, Count: len(values)}
	if len(values) == 0 {
		return sum
	}
	sum.Min = floats.Min(values)
	sum.Max = floats.Max(values)
	if len(values) == 1 {
		sum.Mean = values[0]
		return sum
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
	return sum
}
