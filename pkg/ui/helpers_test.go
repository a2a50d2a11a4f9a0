package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func TestTruncateRunesHelper(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		max    int
		suffix string
		want   string
	}{
		{"fits", "hello", 10, "…", "hello"},
		{"exact", "hello", 5, "…", "hello"},
		{"cut", "hello world", 6, "…", "hello…"},
		{"zero", "hello", 0, "…", ""},
		{"wide chars", "日本語タイトル", 5, "…", "日本…"},
		{"suffix too wide", "hello", 1, "...", "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.input, tt.max, tt.suffix)
			if got != tt.want {
				t.Fatalf("truncateRunesHelper(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if runewidth.StringWidth(got) > tt.max {
				t.Fatalf("result %q wider than %d", got, tt.max)
			}
		})
	}
}

func TestPadding(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padLeft("1.00", 6); got != "  1.00" {
		t.Fatalf("padLeft = %q", got)
	}
	if got := padRight("日本", 5); runewidth.StringWidth(got) != 5 {
		t.Fatalf("padRight should count cells, got %q", got)
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Fatalf("padRight should not cut, got %q", got)
	}
}

func TestFitCell(t *testing.T) {
	got := fitCell("daily\nactive users", 8)
	if runewidth.StringWidth(got) != 8 {
		t.Fatalf("fitCell width = %d, want 8 (%q)", runewidth.StringWidth(got), got)
	}
	if got != "daily a…" {
		t.Fatalf("fitCell = %q", got)
	}
}

func TestMarkdownRendererFallsBack(t *testing.T) {
	var r *MarkdownRenderer
	if got := r.Render("plain"); got != "plain" {
		t.Fatalf("nil renderer should return input, got %q", got)
	}
	r = NewMarkdownRenderer(60)
	if got := r.Render("   "); got != "   " {
		t.Fatalf("blank text should pass through, got %q", got)
	}
}

func TestMarkdownRendererKeepsStyleAcrossWidths(t *testing.T) {
	r := NewMarkdownRenderer(40)
	style := r.style
	if style == "" || style != markdownStyle() {
		t.Fatalf("style = %q, want the process style %q", style, markdownStyle())
	}
	r.SetWidth(90)
	if r.width != 90 || r.style != style {
		t.Fatalf("after resize: width %d style %q", r.width, r.style)
	}
	r.SetWidth(5)
	if r.width != 20 {
		t.Fatalf("width should clamp to 20, got %d", r.width)
	}
	if got := r.Render("**bold**"); !strings.Contains(got, "bold") {
		t.Fatalf("render lost text: %q", got)
	}
}

func TestThemeSeverityColorFollowsClassification(t *testing.T) {
	th := DefaultTheme(lipgloss.NewRenderer(io.Discard))
	tests := []struct {
		severity string
		want     lipgloss.AdaptiveColor
	}{
		{"critical", th.Critical},
		{"high", th.High},
		{"medium", th.Default},
		{"CRITICAL", th.Default},
		{"", th.Default},
	}
	for _, tt := range tests {
		if got := th.SeverityColor(tt.severity); got != tt.want {
			t.Errorf("SeverityColor(%q) = %v, want %v", tt.severity, got, tt.want)
		}
	}
}
