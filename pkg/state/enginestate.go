package state

// EngineState is everything that changes while a story is played.
// Restarting replaces the whole value rather than clearing fields one by one.
type EngineState struct {
	CurrentScene string        // empty until the first transition
	Flags        ProgressFlags
	History      HistoryStack
}

// NewEngineState returns the initial, uninitialized state.
func NewEngineState() *EngineState {
	return &EngineState{}
}

// Started reports whether any scene has been entered yet.
func (s *EngineState) Started() bool {
	return s.CurrentScene != ""
}

// Snapshot is a copy of EngineState safe to hand to other goroutines or encode.
type Snapshot struct {
	CurrentScene string        `json:"current_scene"`
	Flags        ProgressFlags `json:"flags"`
	History      []string      `json:"history"`
}

func (s *EngineState) Snapshot() Snapshot {
	return Snapshot{
		CurrentScene: s.CurrentScene,
		Flags:        s.Flags,
		History:      s.History.Entries(),
	}
}
