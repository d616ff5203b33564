package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause key.Binding
	Prev      key.Binding
	Next      key.Binding
	SeekBack  key.Binding
	SeekFwd   key.Binding
	Repeat    key.Binding
	Shuffle   key.Binding
	Updating  key.Binding
	GainUp    key.Binding
	GainDown  key.Binding
	Add       key.Binding
	Mic       key.Binding
	Remove    key.Binding
	Select    key.Binding
	Up        key.Binding
	Down      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(key.WithKeys(" ", "k"), key.WithHelp("space", "play/pause")),
		Prev:      key.NewBinding(key.WithKeys("left", "j"), key.WithHelp("←/j", "previous")),
		Next:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		SeekBack:  key.NewBinding(key.WithKeys(","), key.WithHelp(",", "-5s")),
		SeekFwd:   key.NewBinding(key.WithKeys("."), key.WithHelp(".", "+5s")),
		Repeat:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Shuffle:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Updating:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "visuals")),
		GainUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		GainDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Mic:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "microphone")),
		Remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play item")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Prev, k.Next, k.Add, k.Mic, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Prev, k.Next, k.SeekBack, k.SeekFwd},
		{k.Repeat, k.Shuffle, k.Updating, k.GainUp, k.GainDown},
		{k.Up, k.Down, k.Select, k.Remove},
		{k.Add, k.Mic, k.Help, k.Quit},
	}
}
