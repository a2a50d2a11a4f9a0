// Package prompt collects a question interactively before it is sent to
// the backend.
package prompt

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("prompt cancelled")

// Placeholder is the example question shown in the empty field.
const Placeholder = "Why did trial users churn last week?"

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Question asks for a free-text question. The text is returned as typed;
// an empty question is allowed.
func Question(initial string) (string, error) {
	question := initial
	form := newForm(
		huh.NewGroup(
			huh.NewText().
				Title("Ask a Question").
				Description("Sent to the product intelligence backend as-is").
				Placeholder(Placeholder).
				CharLimit(0).
				Value(&question),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", err
	}
	return question, nil
}
