package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleOnce sync.Once
	styleName string
)

// markdownStyle picks the glamour style once per process. Detecting the
// background queries the terminal, which must happen before Bubble Tea
// takes over stdin; NewModel runs before the program starts.
func markdownStyle() string {
	styleOnce.Do(func() {
		switch {
		case TermProfile <= colorprofile.ASCII:
			styleName = styles.NoTTYStyle
		case lipgloss.HasDarkBackground():
			styleName = styles.DarkStyle
		default:
			styleName = styles.LightStyle
		}
	})
	return styleName
}

// MarkdownRenderer renders answer text as terminal markdown at a fixed
// wrap width. The glamour renderer is rebuilt only when the width changes,
// always with the style picked at startup.
type MarkdownRenderer struct {
	width    int
	style    string
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer that wraps at width cells.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	r := &MarkdownRenderer{style: markdownStyle()}
	r.SetWidth(width)
	return r
}

// SetWidth changes the wrap width.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if r.renderer != nil && width == r.width {
		return
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.renderer = nil
		return
	}
	r.width = width
	r.renderer = tr
}

// Render returns text as styled markdown, or text unchanged when rendering
// is unavailable or fails.
func (r *MarkdownRenderer) Render(text string) string {
	if r == nil || r.renderer == nil || strings.TrimSpace(text) == "" {
		return text
	}
	rendered, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	// Strip the surrounding blank lines glamour adds
	return strings.Trim(rendered, " \n\r\t")
}
