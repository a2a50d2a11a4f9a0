// Package view holds the projection rules shared by the dashboard and the
// exports: how many records are shown and how values and dates are printed.
package view

import (
	"strconv"
	"time"

	"github.com/vanderheijden86/prodintel/pkg/model"
)

const (
	// MaxInsights is how many insights the dashboard lists.
	MaxInsights = 10
	// MaxMetrics is how many metric rows the dashboard shows.
	MaxMetrics = 20
)

// VisibleInsights returns the first MaxInsights insights in server order.
func VisibleInsights(insights []model.Insight) []model.Insight {
	if len(insights) > MaxInsights {
		return insights[:MaxInsights]
	}
	return insights
}

// VisibleMetrics returns the first MaxMetrics metrics in server order.
func VisibleMetrics(metrics []model.Metric) []model.Metric {
	if len(metrics) > MaxMetrics {
		return metrics[:MaxMetrics]
	}
	return metrics
}

// FormatValue renders a metric value with exactly two decimals.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatDate renders a backend date in loc using layout. Unparseable input
// is returned unchanged.
func FormatDate(raw, layout string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := model.ParseTime(raw, loc)
	if !ok {
		return raw
	}
	return t.In(loc).Format(layout)
}
