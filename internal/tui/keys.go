package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Next    key.Binding
	Prev    key.Binding
	Record  key.Binding
	CSV     key.Binding
	XLSX    key.Binding
	PNG     key.Binding
	SVG     key.Binding
	Clear   key.Binding
	Reset   key.Binding
	Analogy key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous control")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next control")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next scenario")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous scenario")),
		Record:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record run")),
		CSV:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
		XLSX:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export xlsx")),
		PNG:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "chart png")),
		SVG:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "chart svg")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear log")),
		Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset controls")),
		Analogy: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "cycle analogy")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Next, k.Record, k.CSV, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Next, k.Prev, k.Reset, k.Analogy},
		{k.Record, k.Clear, k.CSV, k.XLSX},
		{k.PNG, k.SVG, k.Help, k.Quit},
	}
}
