package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard keyboard bindings.
type keyMap struct {
	Quit  key.Binding
	Reset key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset totals"),
		),
	}
}
