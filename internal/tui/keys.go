package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the status view key bindings.
type keyMap struct {
	CloseAll  key.Binding
	Help      key.Binding
	Detach    key.Binding
	Interrupt key.Binding
}

func defaultKeyMap(closeLabel string) keyMap {
	return keyMap{
		CloseAll: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", closeLabel),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Detach: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "hide view"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "close all and exit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CloseAll, k.Detach, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CloseAll, k.Interrupt},
		{k.Detach, k.Help},
	}
}
