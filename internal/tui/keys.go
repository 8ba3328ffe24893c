package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Back   key.Binding
	Filter key.Binding
	Reset  key.Binding
	Prev   key.Binding
	Next   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open/toggle")),
		Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset filters")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev image")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next image")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.Filter, k.Reset},
		{k.Prev, k.Next},
		{k.Help, k.Quit},
	}
}
