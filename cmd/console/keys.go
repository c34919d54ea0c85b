package main

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/jwebster45206/scene-engine/pkg/engine"
)

type keyMap struct {
	Advance key.Binding
	Back    key.Binding
	Start   key.Binding
	Restart key.Binding
	Choose  key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Advance: key.NewBinding(
			key.WithKeys("enter", "right", " "),
			key.WithHelp("enter/→", "next"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "backspace"),
			key.WithHelp("←", "back"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Choose: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "choose"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy text"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// sync enables only the controls the render instruction offers.
func (k *keyMap) sync(ri engine.RenderInstruction, started bool) {
	k.Advance.SetEnabled(ri.ShowNext || ri.ShowStart)
	k.Back.SetEnabled(ri.ShowPrev)
	k.Start.SetEnabled(ri.ShowStart)
	k.Restart.SetEnabled(started)
	k.Choose.SetEnabled(len(ri.Choices) > 0)
	k.Copy.SetEnabled(ri.Text != "")
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Advance, k.Back, k.Choose, k.Start, k.Restart, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Advance, k.Back, k.Choose},
		{k.Start, k.Restart, k.Copy},
		{k.Help, k.Quit},
	}
}
