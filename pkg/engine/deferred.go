package engine

// Deferred is a transition scheduled to run later, for example after a short
// pause before the gate resolves. It only applies to the engine generation
// and scene it was created from.
type Deferred struct {
	Generation uint64 `json:"generation"`
	From       string `json:"from"`
	Target     string `json:"target"`
}

// Defer captures a transition from the current scene to target.
func (e *Engine) Defer(target string) Deferred {
	return Deferred{
		Generation: e.generation,
		From:       e.state.CurrentScene,
		Target:     target,
	}
}

// DeferAdvance captures what Advance would do right now. ok is false when
// Advance would be a no-op.
func (e *Engine) DeferAdvance() (Deferred, bool) {
	scene, ok := e.current()
	if !ok {
		return Deferred{}, false
	}
	target, ok := e.advanceTarget(scene)
	if !ok {
		return Deferred{}, false
	}
	return e.Defer(target), true
}

// ApplyDeferred runs d if it still belongs to the live engine: same generation
// and the reader is still on the scene it was scheduled from. Otherwise it
// returns ErrStaleTransition and changes nothing.
func (e *Engine) ApplyDeferred(d Deferred) error {
	if d.Generation != e.generation || d.From != e.state.CurrentScene {
		e.logger.Debug("Discarding stale deferred transition",
			"target", d.Target,
			"generation", d.Generation,
			"live_generation", e.generation,
			"from", d.From,
			"current_scene", e.state.CurrentScene)
		return ErrStaleTransition
	}
	return e.goTo(d.Target, moveForward)
}
