// Package engine runs the scene state machine: which scene is current, how
// history and back navigation work, and how scene actions and the trial gate
// change the flow.
//
// An Engine is not safe for concurrent use. Every operation runs to completion
// and emits at most one RenderInstruction.
package engine

import (
	"errors"
	"log/slog"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

// ErrStaleTransition is returned by ApplyDeferred for a transition scheduled
// before the engine restarted, or from a scene the reader has since left.
var ErrStaleTransition = errors.New("stale deferred transition")

// Engine drives a Renderer through a scenario.
type Engine struct {
	scenario    *scenario.Scenario
	renderer    Renderer
	logger      *slog.Logger
	assetPrefix string

	state      *state.EngineState
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithAssetPrefix resolves relative scene image paths against prefix.
func WithAssetPrefix(prefix string) Option {
	return func(e *Engine) { e.assetPrefix = prefix }
}

// New creates an engine in the uninitialized state. Call Start to enter the
// first scene. renderer and logger may be nil.
func New(sc *scenario.Scenario, renderer Renderer, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		scenario: sc,
		renderer: renderer,
		logger:   logger,
		state:    state.NewEngineState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// move selects the side effects of a transition.
type move int

const (
	moveForward  move = iota // push history, apply action
	moveAuthored             // authored prev link: apply action, no push
	moveReplay               // history pop: neither
)

// Title emits the title scene, shown before Start. Scenarios without a title
// scene get a bare instruction offering the start control.
func (e *Engine) Title() RenderInstruction {
	ri := RenderInstruction{
		SceneType:  scenario.SceneTypeStart,
		Text:       e.scenario.Name,
		ShowStart:  true,
		Generation: e.generation,
	}
	if scene, err := e.scenario.Get(e.scenario.TitleScene); err == nil {
		ri = e.instruction(scene)
		ri.ShowStart = true
	}
	e.emit(ri)
	return ri
}

// Start resets the engine to its initial state and enters the start scene.
func (e *Engine) Start() error {
	e.state = state.NewEngineState()
	e.generation++
	e.logger.Debug("Starting scenario", "scenario", e.scenario.Name, "start_scene", e.scenario.StartScene, "generation", e.generation)
	return e.goTo(e.scenario.StartScene, moveForward)
}

// Restart discards all progress and starts over.
func (e *Engine) Restart() error {
	e.logger.Info("Restarting scenario", "from_scene", e.state.CurrentScene)
	return e.Start()
}

// GoTo moves to target, or resolves the gate if target is scenario.GateSentinel.
// An unknown target leaves the engine where it was and returns an error
// wrapping scenario.ErrSceneNotFound.
func (e *Engine) GoTo(target string) error {
	return e.goTo(target, moveForward)
}

// Advance follows the current scene's next link. It is a no-op when there is
// no next link, except on the cleared trial selection scene, which falls
// through to the gate.
func (e *Engine) Advance() error {
	scene, ok := e.current()
	if !ok {
		return nil
	}
	target, ok := e.advanceTarget(scene)
	if !ok {
		return nil
	}
	return e.goTo(target, moveForward)
}

func (e *Engine) advanceTarget(scene *scenario.Scene) (string, bool) {
	if scene.Next != "" {
		return scene.Next, true
	}
	if e.selectionCleared(scene) {
		return scenario.GateSentinel, true
	}
	return "", false
}

// Back follows the current scene's authored prev link without touching
// history. Without one it pops the most recent history entry and jumps there
// directly, skipping that scene's action. With neither it does nothing.
func (e *Engine) Back() error {
	scene, ok := e.current()
	if !ok {
		return nil
	}
	if scene.Prev != "" {
		return e.goTo(scene.Prev, moveAuthored)
	}

	id, ok := e.state.History.Pop()
	if !ok {
		return nil
	}
	if err := e.goTo(id, moveReplay); err != nil {
		e.state.History.Push(id)
		return err
	}
	return nil
}

// SelectChoice moves to a choice's target.
func (e *Engine) SelectChoice(next string) error {
	return e.goTo(next, moveForward)
}

func (e *Engine) goTo(target string, m move) error {
	if target == scenario.GateSentinel {
		target = e.resolveGate()
	}

	scene, err := e.scenario.Get(target)
	if err != nil {
		e.logger.Warn("Transition refused", "current_scene", e.state.CurrentScene, "target", target, "error", err)
		return err
	}

	if m == moveForward && e.state.Started() {
		e.state.History.Push(e.state.CurrentScene)
	}
	e.state.CurrentScene = target

	if m != moveReplay {
		e.applyAction(scene)
	}

	e.logger.Debug("Scene entered", "scene", target, "type", scene.Type, "history", e.state.History.Len())
	e.emit(e.instruction(scene))
	return nil
}

// resolveGate picks the pass scene when every trial is cleared, otherwise the
// trial selection scene.
func (e *Engine) resolveGate() string {
	if e.state.Flags.AllCleared() {
		return e.scenario.Gate.PassScene
	}
	return e.scenario.Gate.SelectScene
}

func (e *Engine) applyAction(scene *scenario.Scene) {
	kind := scenario.ParseAction(scene.Action)
	flag, ok := kind.Flag()
	if !ok {
		if kind == scenario.ActionUnrecognized {
			e.logger.Debug("Ignoring unrecognized action", "scene", scene.ID, "action", scene.Action)
		}
		return
	}
	e.state.Flags.Set(flag, true)
	e.logger.Debug("Flag set", "flag", flag, "scene", scene.ID)
}

func (e *Engine) emit(ri RenderInstruction) {
	if e.renderer != nil {
		e.renderer.Render(ri)
	}
}

func (e *Engine) current() (*scenario.Scene, bool) {
	if !e.state.Started() {
		return nil, false
	}
	scene, err := e.scenario.Get(e.state.CurrentScene)
	if err != nil {
		return nil, false
	}
	return scene, true
}

// Render rebuilds the instruction for the current scene without emitting it.
// ok is false before Start.
func (e *Engine) Render() (RenderInstruction, bool) {
	scene, ok := e.current()
	if !ok {
		return RenderInstruction{}, false
	}
	return e.instruction(scene), true
}

// CurrentScene returns the current scene id, or "" before Start.
func (e *Engine) CurrentScene() string {
	return e.state.CurrentScene
}

// Flags returns a copy of the progress flags.
func (e *Engine) Flags() state.ProgressFlags {
	return e.state.Flags
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() state.Snapshot {
	return e.state.Snapshot()
}

// PreviousScene returns the history entry before the most recent one.
func (e *Engine) PreviousScene() (string, bool) {
	return e.state.History.Previous()
}

// Generation changes every time the engine starts or restarts.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// Scenario returns the graph the engine plays.
func (e *Engine) Scenario() *scenario.Scenario {
	return e.scenario
}
