// Package export writes a dashboard snapshot to portable formats: a
// markdown report and a self-contained SQLite database.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vanderheijden86/prodintel/pkg/config"
	"github.com/vanderheijden86/prodintel/pkg/model"
	"github.com/vanderheijden86/prodintel/pkg/snapshot"
	"github.com/vanderheijden86/prodintel/pkg/view"
)

// MarkdownOptions controls the markdown report.
type MarkdownOptions struct {
	Title      string         // defaults to "Product Intelligence"
	DateLayout string         // defaults to config.DefaultDateLayout
	Location   *time.Location // defaults to time.Local
}

func (o MarkdownOptions) withDefaults() MarkdownOptions {
	if o.Title == "" {
		o.Title = "Product Intelligence"
	}
	if o.DateLayout == "" {
		o.DateLayout = config.DefaultDateLayout
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

var severityEmoji = map[model.SeverityLevel]string{
	model.SeverityCritical: "🔴",
	model.SeverityHigh:     "🟠",
	model.SeverityDefault:  "🟡",
}

// GenerateMarkdown renders the snapshot the way the dashboard shows it:
// the insight count, the first 10 insights and the first 20 metrics.
func GenerateMarkdown(snap snapshot.Snapshot, opts MarkdownOptions) string {
	opts = opts.withDefaults()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", opts.Title))
	if snap.BaseURL != "" {
		sb.WriteString(fmt.Sprintf("*Source:* `%s`  \n", snap.BaseURL))
	}
	if !snap.FetchedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("*Fetched:* %s\n\n", snap.FetchedAt.In(opts.Location).Format(time.RFC1123)))
	}

	sb.WriteString(fmt.Sprintf("## Active Insights (%d)\n\n", len(snap.Insights)))
	visible := view.VisibleInsights(snap.Insights)
	if len(visible) == 0 {
		sb.WriteString("_No insights._\n\n")
	}
	for _, in := range visible {
		sb.WriteString(fmt.Sprintf("- %s **%s** `%s`\n", severityEmoji[in.Level()], escapeInline(in.Title), severityLabel(in.Severity)))
		if in.HasExplanation() {
			for _, line := range strings.Split(strings.TrimSpace(in.LLMExplanation), "\n") {
				sb.WriteString("  > " + line + "\n")
			}
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Recent Metrics\n\n")
	rows := view.VisibleMetrics(snap.Metrics)
	if len(rows) == 0 {
		sb.WriteString("_No metrics._\n")
	} else {
		sb.WriteString("| Metric | Type | Value | Date |\n")
		sb.WriteString("|--------|------|------:|------|\n")
		for _, m := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				escapeCell(m.MetricName),
				escapeCell(m.MetricType),
				view.FormatValue(m.Value),
				escapeCell(view.FormatDate(m.Date, opts.DateLayout, opts.Location)),
			))
		}
	}

	if len(snap.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\n---\n\n*Unavailable:* %s\n", strings.Join(snap.Failed, ", ")))
	}
	return sb.String()
}

// WriteMarkdown writes GenerateMarkdown's output to w.
func WriteMarkdown(w io.Writer, snap snapshot.Snapshot, opts MarkdownOptions) error {
	if _, err := io.WriteString(w, GenerateMarkdown(snap, opts)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

// severityLabel is the server's severity text as the dashboard badge shows
// it, made safe for a code span.
func severityLabel(severity string) string {
	if strings.TrimSpace(severity) == "" {
		return "none"
	}
	s := strings.ReplaceAll(severity, "`", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func escapeInline(s string) string {
	s = strings.ReplaceAll(s, "*", "\\*")
	return strings.ReplaceAll(s, "\n", " ")
}
