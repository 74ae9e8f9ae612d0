package shared

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Toggle         key.Binding
	Pause          key.Binding
	Reset          key.Binding
	ToggleStats    key.Binding
	ToggleChannels key.Binding
	Save           key.Binding
	Help           key.Binding
	Quit           key.Binding
	Escape         key.Binding
}

var Keys = KeyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "start/stop session"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause farm clock"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset (idle only)"),
	),
	ToggleStats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "toggle stats"),
	),
	ToggleChannels: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "toggle channels"),
	),
	Save: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "save panel layout"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.ToggleStats, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Pause, k.Reset},
		{k.ToggleStats, k.ToggleChannels, k.Save},
		{k.Help, k.Escape, k.Quit},
	}
}
