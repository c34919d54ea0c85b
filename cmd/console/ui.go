package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// historyShown caps the history entries listed in the meta panel.
const historyShown = 8

// sceneSink receives render instructions from the engine. The engine pointer
// is shared by every copy of the model, so the sink is too.
type sceneSink struct {
	last  engine.RenderInstruction
	count int
}

func (s *sceneSink) Render(ri engine.RenderInstruction) {
	s.last = ri
	s.count++
}

// ConsoleUI is the BubbleTea model that plays a scenario in the terminal.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine    *engine.Engine
	sink      *sceneSink
	logger    *slog.Logger
	gateDelay time.Duration
	copyText  func(string) error
	loadErr   error

	sceneViewport viewport.Model
	metaViewport  viewport.Model
	help          help.Model
	keys          keyMap

	ready         bool
	width         int
	height        int
	showQuitModal bool
	pendingGate   bool
	status        string
	err           error
}

// gateMsg fires when a delayed gate transition is due.
type gateMsg struct {
	deferred engine.Deferred
}

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneTypeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	imageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var titleCaser = cases.Title(language.English)

// NewConsoleUI builds the model. When loadErr is set the UI only shows the
// failure; sc may then be nil.
func NewConsoleUI(cfg *config.Config, sc *scenario.Scenario, loadErr error, logger *slog.Logger) ConsoleUI {
	sceneVp := viewport.New(50, 20)
	sceneVp.MouseWheelEnabled = true
	sceneVp.KeyMap = scrollKeys()

	metaVp := viewport.New(20, 20)
	metaVp.KeyMap = viewport.KeyMap{}

	m := ConsoleUI{
		logger:        logger,
		gateDelay:     cfg.GateDelay,
		copyText:      clipboard.WriteAll,
		loadErr:       loadErr,
		sceneViewport: sceneVp,
		metaViewport:  metaVp,
		help:          help.New(),
		keys:          newKeyMap(),
	}
	if loadErr != nil || sc == nil {
		if m.loadErr == nil {
			m.loadErr = errors.New("no scenario loaded")
		}
		return m
	}

	m.sink = &sceneSink{}
	m.engine = engine.New(sc, m.sink, logger, engine.WithAssetPrefix(cfg.AssetPrefix))
	m.engine.Title()
	m.keys.sync(m.sink.last, false)
	return m
}

// scrollKeys leaves the arrow keys and space to scene navigation.
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.resize()
		return m, nil
	}

	// Nothing can be played without a scenario.
	if m.loadErr != nil {
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.showQuitModal = true
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			m.copyScene()
			return m, nil
		case key.Matches(msg, m.keys.Start):
			m.apply(m.engine.Start())
			return m, nil
		case key.Matches(msg, m.keys.Restart):
			m.apply(m.engine.Restart())
			return m, nil
		case key.Matches(msg, m.keys.Advance):
			return m.advance()
		case key.Matches(msg, m.keys.Back):
			m.apply(m.engine.Back())
			return m, nil
		case key.Matches(msg, m.keys.Choose):
			m.choose(msg.String())
			return m, nil
		}

	case gateMsg:
		err := m.engine.ApplyDeferred(msg.deferred)
		if errors.Is(err, engine.ErrStaleTransition) {
			// The reader moved on or restarted before the pause ended.
			return m, nil
		}
		m.pendingGate = false
		m.apply(err)
		return m, nil
	}

	m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

// advance follows the next link. A hop through the trial gate waits for
// gateDelay first; the scheduled transition is dropped if the reader acts in
// the meantime.
func (m ConsoleUI) advance() (tea.Model, tea.Cmd) {
	if m.engine.CurrentScene() == "" {
		m.apply(m.engine.Start())
		return m, nil
	}
	if m.pendingGate {
		return m, nil
	}

	d, ok := m.engine.DeferAdvance()
	if !ok {
		return m, nil
	}
	if d.Target != scenario.GateSentinel || m.gateDelay <= 0 {
		m.apply(m.engine.ApplyDeferred(d))
		return m, nil
	}

	m.pendingGate = true
	m.refresh()
	return m, tea.Tick(m.gateDelay, func(time.Time) tea.Msg {
		return gateMsg{deferred: d}
	})
}

func (m *ConsoleUI) choose(digit string) {
	choices := m.sink.last.Choices
	idx := int(digit[0] - '1')
	if idx < 0 || idx >= len(choices) {
		return
	}
	m.apply(m.engine.SelectChoice(choices[idx].OnSelect))
}

func (m *ConsoleUI) copyScene() {
	if err := m.copyText(m.sink.last.Text); err != nil {
		m.logger.Warn("Failed to copy scene text", "error", err)
		m.status = errorStyle.Render("Copy failed: " + err.Error())
	} else {
		m.status = promptStyle.Render("Scene text copied to clipboard")
	}
	m.refresh()
}

// apply records the outcome of an engine operation and redraws.
func (m *ConsoleUI) apply(err error) {
	m.err = err
	if err == nil {
		m.pendingGate = false
		m.status = ""
	}
	m.keys.sync(m.sink.last, m.engine.CurrentScene() != "")
	m.refresh()
}

func (m *ConsoleUI) resize() {
	sceneWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - sceneWidth - 6

	m.sceneViewport.Width = sceneWidth - 2
	m.sceneViewport.Height = m.height - 8
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.help.Width = sceneWidth - 4
	m.ready = true
	m.refresh()
}

func (m *ConsoleUI) refresh() {
	if m.engine == nil {
		return
	}
	m.sceneViewport.SetContent(m.writeSceneContent())
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m ConsoleUI) writeSceneContent() string {
	ri := m.sink.last
	width := m.sceneViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	name := m.engine.Scenario().Name
	if name == "" {
		name = "Scene Engine"
	}
	content.WriteString(titleStyle.Render(strings.ToUpper(name)) + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	content.WriteString(sceneTypeStyle.Render(titleCaser.String(string(ri.SceneType))))
	if ri.SceneID != "" {
		content.WriteString(promptStyle.Render("  " + ri.SceneID))
	}
	content.WriteString("\n\n")

	if ri.ImagePath != "" {
		content.WriteString(imageStyle.Render("[image: "+ri.ImagePath+"]") + "\n\n")
	}

	content.WriteString(wordwrap.String(ri.Text, width) + "\n\n")

	for i, c := range ri.Choices {
		line := fmt.Sprintf("%d. %s", i+1, c.Text)
		content.WriteString(choiceStyle.Render(wordwrap.String(line, width)) + "\n")
	}
	if len(ri.Choices) > 0 {
		content.WriteString("\n")
	}

	if ri.IsEnding {
		content.WriteString(titleStyle.Render("The End") + "\n\n")
	}
	if m.pendingGate {
		content.WriteString(loadingStyle.Render("...") + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.status != "" {
		content.WriteString(m.status + "\n")
	}
	return content.String()
}

func (m ConsoleUI) writeMetadata() string {
	snap := m.engine.Snapshot()

	var content strings.Builder
	content.WriteString(titleStyle.Render("SCENE STATE") + "\n\n")

	content.WriteString("Scene:\n")
	if snap.CurrentScene == "" {
		content.WriteString("(title)\n\n")
	} else {
		content.WriteString(snap.CurrentScene + "\n\n")
	}

	content.WriteString("Trials:\n")
	for _, t := range []struct {
		label   string
		cleared bool
	}{
		{"A", snap.Flags.TrialA},
		{"B", snap.Flags.TrialB},
		{"C", snap.Flags.TrialC},
	} {
		mark := " "
		if t.cleared {
			mark = "x"
		}
		content.WriteString(fmt.Sprintf("[%s] Trial %s\n", mark, t.label))
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("History (%d):\n", len(snap.History)))
	if len(snap.History) == 0 {
		content.WriteString("Empty\n")
	}
	for i, shown := len(snap.History)-1, 0; i >= 0 && shown < historyShown; i, shown = i-1, shown+1 {
		content.WriteString("• " + snap.History[i] + "\n")
	}
	content.WriteString("\n")

	if prev, ok := m.engine.PreviousScene(); ok {
		content.WriteString("Previous:\n" + prev + "\n\n")
	}
	if target := m.sink.last.BackTarget; target != "" {
		content.WriteString("Back goes to:\n" + target + "\n\n")
	}
	content.WriteString(fmt.Sprintf("Run: %d\n", m.engine.Generation()))
	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}
	switch k.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Progress is not saved between runs.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderLoadError() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Scenario failed to load"))
	content.WriteString("\n\n")
	content.WriteString(errorStyle.Render(wordwrap.String(m.loadErr.Error(), 56)))
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Fix the scenario file and try again. Press Q to exit."))

	modal := modalStyle.Width(60).Render(content.String())
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.loadErr != nil {
		return m.renderLoadError()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	sceneWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - sceneWidth - 6

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.sceneViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(sceneWidth-4, 1))),
			m.help.View(m.keys),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}
