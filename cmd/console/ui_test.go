package main

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consoleScenario = `{
	"name": "Trials",
	"startScene": "c1_1",
	"scenes": {
		"start": {"type": "start", "text": "The Three Trials", "image": "title.png", "next": "c1_1"},
		"c1_1": {"type": "dialogue", "text": "The road forks ahead.", "next": "CHECK_TRIALS"},
		"trials": {"type": "choice", "text": "Choose a trial.", "choices": [
			{"text": "Trial A", "next": "trialA_entry"},
			{"text": "Trial B", "next": "trialB_entry"}
		]},
		"trialA_entry": {"type": "dialogue", "text": "A", "action": "mark_trialA", "next": "CHECK_TRIALS"},
		"trialB_entry": {"type": "dialogue", "text": "B", "action": "mark_trialB", "next": "CHECK_TRIALS"},
		"nextChapter": {"type": "ending", "text": "Ch.2"}
	}
}`

func newTestUI(t *testing.T, delay time.Duration) ConsoleUI {
	t.Helper()
	sc, err := scenario.Parse([]byte(consoleScenario), scenario.FormatJSON)
	require.NoError(t, err)

	cfg := &config.Config{AssetPrefix: "images/", GateDelay: delay}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewConsoleUI(cfg, sc, nil, logger)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m ConsoleUI, msg tea.Msg) ConsoleUI {
	t.Helper()
	next, _ := m.Update(msg)
	ui, ok := next.(ConsoleUI)
	require.True(t, ok)
	return ui
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsoleUI_TitleAndStart(t *testing.T) {
	m := newTestUI(t, 0)

	assert.Equal(t, "start", m.sink.last.SceneID)
	assert.Equal(t, "images/title.png", m.sink.last.ImagePath)
	assert.Contains(t, m.View(), "The Three Trials")
	assert.Contains(t, m.View(), "Start")

	m = update(t, m, keyPress("enter"))
	assert.Equal(t, "c1_1", m.engine.CurrentScene())
	assert.Contains(t, m.View(), "The road forks ahead.")
}

func TestConsoleUI_PlayWithoutDelay(t *testing.T) {
	m := newTestUI(t, 0)
	m = update(t, m, keyPress("s"))
	m = update(t, m, keyPress("enter"))
	require.Equal(t, "trials", m.engine.CurrentScene())
	require.Len(t, m.sink.last.Choices, 2)

	m = update(t, m, keyPress("1"))
	assert.Equal(t, "trialA_entry", m.engine.CurrentScene())
	assert.True(t, m.engine.Flags().TrialA)

	m = update(t, m, keyPress("enter"))
	require.Equal(t, "trials", m.engine.CurrentScene())
	require.Len(t, m.sink.last.Choices, 1)
	assert.Equal(t, "trialB_entry", m.sink.last.Choices[0].OnSelect)

	// Out of range digits are ignored.
	m = update(t, m, keyPress("5"))
	assert.Equal(t, "trials", m.engine.CurrentScene())

	m = update(t, m, keyPress("left"))
	assert.Equal(t, "trialA_entry", m.engine.CurrentScene())

	m = update(t, m, keyPress("r"))
	assert.Equal(t, "c1_1", m.engine.CurrentScene())
	assert.False(t, m.engine.Flags().TrialA)
}

func TestConsoleUI_GateDelay(t *testing.T) {
	m := newTestUI(t, 10*time.Millisecond)
	m = update(t, m, keyPress("enter"))
	require.Equal(t, "c1_1", m.engine.CurrentScene())

	next, cmd := m.Update(keyPress("enter"))
	m = next.(ConsoleUI)
	require.NotNil(t, cmd)
	assert.True(t, m.pendingGate)
	assert.Equal(t, "c1_1", m.engine.CurrentScene())

	// A second press while waiting schedules nothing.
	_, again := m.Update(keyPress("enter"))
	assert.Nil(t, again)

	msg := cmd()
	m = update(t, m, msg)
	assert.False(t, m.pendingGate)
	assert.Equal(t, "trials", m.engine.CurrentScene())

	// Delivering the same tick twice is harmless.
	m = update(t, m, msg)
	assert.Equal(t, "trials", m.engine.CurrentScene())
	assert.Nil(t, m.err)
}

func TestConsoleUI_GateDelayDroppedAfterRestart(t *testing.T) {
	m := newTestUI(t, 10*time.Millisecond)
	m = update(t, m, keyPress("enter"))

	next, cmd := m.Update(keyPress("enter"))
	m = next.(ConsoleUI)
	require.NotNil(t, cmd)

	m = update(t, m, keyPress("r"))
	assert.False(t, m.pendingGate)

	m = update(t, m, cmd())
	assert.Equal(t, "c1_1", m.engine.CurrentScene())
	assert.Nil(t, m.err)
}

func TestConsoleUI_Copy(t *testing.T) {
	m := newTestUI(t, 0)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m = update(t, m, keyPress("enter"))
	m = update(t, m, keyPress("c"))
	assert.Equal(t, "The road forks ahead.", copied)
	assert.Contains(t, m.View(), "copied")

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m = update(t, m, keyPress("c"))
	assert.Contains(t, m.View(), "no clipboard")
}

func TestConsoleUI_QuitModal(t *testing.T) {
	m := newTestUI(t, 0)

	m = update(t, m, keyPress("ctrl+c"))
	assert.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "Quit?")

	m = update(t, m, keyPress("n"))
	assert.False(t, m.showQuitModal)

	m = update(t, m, keyPress("q"))
	_, cmd := m.Update(keyPress("y"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestConsoleUI_LoadFailure(t *testing.T) {
	cfg := &config.Config{}
	loadErr := &scenario.DataError{Source: "broken.json", Problems: []string{`startScene "nowhere" does not exist`}}
	m := NewConsoleUI(cfg, nil, loadErr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	assert.Contains(t, view, "Scenario failed to load")
	assert.Contains(t, view, "broken.json")

	// Play controls do nothing.
	next, cmd := m.Update(keyPress("enter"))
	assert.Nil(t, cmd)
	assert.Nil(t, next.(ConsoleUI).engine)

	_, cmd = m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
