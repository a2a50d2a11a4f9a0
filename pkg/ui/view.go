package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/prodintel/pkg/metrics"
	"github.com/vanderheijden86/prodintel/pkg/view"
)

// Metric table column widths; the name column takes the rest.
const (
	colTypeWidth  = 14
	colValueWidth = 12
	colDateWidth  = 12
	colGap        = 2
)

// View renders the page. It is a pure projection of the model and never
// fails, whatever state the backend left it in.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("Product Intelligence")
	if m.opts.BaseURL == "" {
		return title
	}
	room := m.width - lipgloss.Width(title) - 2
	return title + "  " + m.theme.MutedText.Render(truncate(m.opts.BaseURL, room))
}

// innerWidth is the content width inside a bordered, padded panel.
func (m Model) innerWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderBody() string {
	sections := []string{m.renderQueryPanel()}
	if m.answer != "" {
		sections = append(sections, m.renderAnswerPanel())
	}
	sections = append(sections, m.renderInsights(), m.renderMetrics())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderQueryPanel() string {
	var button string
	if m.pending {
		button = m.theme.ButtonIdle.Render(m.spinner.View() + " Loading...")
	} else {
		button = m.theme.Button.Render("Ask")
	}

	lines := []string{
		m.theme.Section.Render("Ask a Question"),
		lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), "  ", button),
	}
	return panelStyle(m.focus == focusQuery).
		Width(m.width - 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderAnswerPanel() string {
	return PanelStyle.
		Width(m.width - 2).
		Render(m.theme.Section.Render("Answer") + "\n" + m.answerView)
}

func (m Model) renderInsights() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Section.Render(fmt.Sprintf("Active Insights (%d)", len(m.insights))))

	visible := view.VisibleInsights(m.insights)
	if len(visible) == 0 {
		sb.WriteString("\n" + m.theme.MutedText.Render("No insights"))
	}

	width := m.innerWidth()
	focused := m.focus == focusInsights
	for i, in := range visible {
		marker := "  "
		if focused && i == m.selected {
			marker = m.theme.PrimaryBold.Render("▸ ")
		}
		bullet := m.theme.Renderer.NewStyle().Foreground(m.theme.SeverityColor(in.Severity)).Render("●")
		badge := RenderSeverityBadge(in.Severity)

		titleRoom := width - lipgloss.Width(badge) - 5
		title := truncate(oneLine(in.Title), titleRoom)
		if in.Resolved == "resolved" {
			title = m.theme.MutedText.Render(title)
		}
		left := marker + bullet + " " + title
		gap := width - lipgloss.Width(left) - lipgloss.Width(badge)
		if gap < 1 {
			gap = 1
		}
		sb.WriteString("\n" + left + strings.Repeat(" ", gap) + badge)

		if in.HasExplanation() {
			expl := m.theme.MutedText.
				Width(width - 4).
				Render(strings.TrimSpace(in.LLMExplanation))
			for _, line := range strings.Split(expl, "\n") {
				sb.WriteString("\n    " + line)
			}
		}
	}

	return panelStyle(focused).Width(m.width - 2).Render(sb.String())
}

func (m Model) renderMetrics() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Section.Render("Recent Metrics"))

	width := m.innerWidth()
	nameWidth := width - colTypeWidth - colValueWidth - colDateWidth - 3*colGap
	if nameWidth < 10 {
		nameWidth = 10
	}
	gap := strings.Repeat(" ", colGap)

	heading := fitCell("Metric", nameWidth) + gap +
		fitCell("Type", colTypeWidth) + gap +
		padLeft("Value", colValueWidth) + gap +
		fitCell("Date", colDateWidth)
	sb.WriteString("\n" + m.theme.TableHeading.Render(heading))
	sb.WriteString("\n" + RenderDivider(lipgloss.Width(heading)))

	rows := view.VisibleMetrics(m.metrics)
	if len(rows) == 0 {
		sb.WriteString("\n" + m.theme.MutedText.Render("No metrics"))
	}
	for _, mt := range rows {
		date := view.FormatDate(mt.Date, m.opts.DateLayout, m.opts.Location)
		sb.WriteString("\n" +
			fitCell(mt.MetricName, nameWidth) + gap +
			m.theme.MutedText.Render(fitCell(mt.MetricType, colTypeWidth)) + gap +
			padLeft(view.FormatValue(mt.Value), colValueWidth) + gap +
			m.theme.MutedText.Render(fitCell(date, colDateWidth)))
	}

	return panelStyle(m.focus == focusMetrics).Width(m.width - 2).Render(sb.String())
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		var msgStyle lipgloss.Style
		prefix := "✓ "
		if m.statusIsError {
			prefix = "✗ "
			msgStyle = lipgloss.NewStyle().
				Background(ColorStatusErrBg).
				Foreground(ColorDanger).
				Bold(true).
				Padding(0, 2)
		} else {
			msgStyle = lipgloss.NewStyle().
				Background(ColorStatusOkBg).
				Foreground(ColorSuccess).
				Bold(true).
				Padding(0, 2)
		}
		return msgStyle.Render(prefix + m.statusMsg)
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	labelStyle := lipgloss.NewStyle().Foreground(ColorText)
	var parts []string
	for _, b := range m.keys.hints(m.focus) {
		h := b.Help()
		parts = append(parts, keyStyle.Render(h.Key)+" "+labelStyle.Render(h.Desc))
	}
	return truncateFooter(strings.Join(parts, "  "), m.width)
}

// truncateFooter keeps the hint bar on one line.
func truncateFooter(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
