package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Trigger key.Binding
	Voice   key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "down", "tab", "l", "j"),
		key.WithHelp("→/tab", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "up", "shift+tab", "h", "k"),
		key.WithHelp("←/shift+tab", "previous"),
	),
	Trigger: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "activate"),
	),
	Voice: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "voice on/off"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy last"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Trigger, k.Voice, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Trigger},
		{k.Voice, k.Copy, k.Help, k.Quit},
	}
}
