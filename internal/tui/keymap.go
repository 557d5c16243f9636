package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard shortcuts of the review screen.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Keep    key.Binding
	Skip    key.Binding
	Edit    key.Binding
	SkipAll key.Binding
	Apply   key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Keep: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "keep row"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip row"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit row"),
		),
		SkipAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "skip all undecided"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("enter/a", "apply decisions"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "abandon"),
		),
	}
}
