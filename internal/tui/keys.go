package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause      key.Binding
	Resume     key.Binding
	Complete   key.Binding
	Reschedule key.Binding
	Distract   key.Binding
	Add        key.Binding
	Next       key.Binding
	BeginDay   key.Binding
	EndDay     key.Binding
	Report     key.Binding
	NextView   key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Completed  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Resume:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Complete:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Reschedule: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "reschedule")),
		Distract:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "distraction")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Next:       key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "next task")),
		BeginDay:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "begin day")),
		EndDay:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end day")),
		Report:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "report")),
		NextView:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "track selected")),
		Completed:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "show/hide done")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Resume, k.Complete, k.Reschedule, k.Add, k.NextView, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Resume, k.Complete, k.Reschedule, k.Distract},
		{k.Add, k.Next, k.Select, k.Up, k.Down},
		{k.BeginDay, k.EndDay, k.Report, k.NextView, k.Completed},
		{k.Help, k.Quit},
	}
}
