package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/prodintel/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor

	// Severity
	Critical lipgloss.AdaptiveColor
	High     lipgloss.AdaptiveColor
	Default  lipgloss.AdaptiveColor

	Header  lipgloss.Style
	Section lipgloss.Style

	MutedText    lipgloss.Style // explanations, dates
	PrimaryBold  lipgloss.Style // selection indicator
	Button       lipgloss.Style // Ask
	ButtonIdle   lipgloss.Style // Loading...
	TableHeading lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: ColorPrimary,

		Critical: ColorSeverityCritical,
		High:     ColorSeverityHigh,
		Default:  ColorSeverityDefault,
	}

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Section = r.NewStyle().Foreground(t.Primary).Bold(true)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Button = r.NewStyle().
		Background(ThemeBg("#2563EB")).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}).
		Bold(true).
		Padding(0, 2)
	t.ButtonIdle = r.NewStyle().
		Background(ColorBgSubtle).
		Foreground(ColorMuted).
		Padding(0, 2)
	t.TableHeading = r.NewStyle().Foreground(ColorSubtext).Bold(true)

	return t
}

// SeverityColor returns the accent color for a server severity string.
func (t Theme) SeverityColor(severity string) lipgloss.AdaptiveColor {
	switch model.ClassifySeverity(severity) {
	case model.SeverityCritical:
		return t.Critical
	case model.SeverityHigh:
		return t.High
	default:
		return t.Default
	}
}
