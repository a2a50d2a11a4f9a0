package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Focus    key.Binding
	FocusRev key.Binding
	Submit   key.Binding
	Refresh  key.Binding
	Resolve  key.Binding
	Copy     key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		FocusRev: key.NewBinding(key.WithKeys("shift+tab")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Resolve:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "resolve")),
		Copy:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy answer")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	}
}

// hints returns the footer bindings for the focused element.
func (k keyMap) hints(f focus) []key.Binding {
	switch f {
	case focusInsights:
		return []key.Binding{k.Focus, k.Up, k.Down, k.Resolve, k.Refresh, k.Quit}
	case focusMetrics:
		return []key.Binding{k.Focus, k.Up, k.Down, k.PageDown, k.Refresh, k.Quit}
	default:
		return []key.Binding{k.Submit, k.Focus, k.Copy, k.Refresh, k.Quit}
	}
}
