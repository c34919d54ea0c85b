package scenario

import (
	"errors"
	"fmt"
	"sort"
)

// Default gate scene ids, used when a scenario omits them.
const (
	DefaultPassScene   = "nextChapter"
	DefaultSelectScene = "trials"
	DefaultClearedText = "Every trial has been cleared. The path to the next chapter is open."
)

// DefaultTrialEntries are the scene ids that enter trials A, B and C.
var DefaultTrialEntries = [3]string{"trialA_entry", "trialB_entry", "trialC_entry"}

// ErrSceneNotFound is returned by Get when a scene id is absent from the graph.
var ErrSceneNotFound = errors.New("scene not found")

// Gate names the scenes that GateSentinel resolves to, and the trial entry
// scenes whose choices disappear once the matching trial is cleared.
type Gate struct {
	PassScene    string            `json:"passScene,omitempty" yaml:"passScene,omitempty"`
	SelectScene  string            `json:"selectScene,omitempty" yaml:"selectScene,omitempty"`
	TrialEntries map[string]string `json:"trialEntries,omitempty" yaml:"trialEntries,omitempty"` // trial flag -> entry scene id
	ClearedText  string            `json:"clearedText,omitempty" yaml:"clearedText,omitempty"`
}

// Scenario is the immutable scene graph. It is never modified after Parse returns it.
type Scenario struct {
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	StartScene string            `json:"startScene" yaml:"startScene"`
	TitleScene string            `json:"titleScene,omitempty" yaml:"titleScene,omitempty"`
	Gate       Gate              `json:"gate,omitempty" yaml:"gate,omitempty"`
	Scenes     map[string]*Scene `json:"scenes" yaml:"scenes"`
}

// Get returns the scene with the given id. A missing id yields an error
// wrapping ErrSceneNotFound.
func (s *Scenario) Get(id string) (*Scene, error) {
	scene, ok := s.Scenes[id]
	if !ok || scene == nil {
		return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, id)
	}
	return scene, nil
}

// Has reports whether id names a scene in the graph.
func (s *Scenario) Has(id string) bool {
	_, ok := s.Scenes[id]
	return ok
}

// SceneIDs returns all scene ids in sorted order.
func (s *Scenario) SceneIDs() []string {
	ids := make([]string, 0, len(s.Scenes))
	for id := range s.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TrialEntry returns the entry scene id for a trial flag.
func (s *Scenario) TrialEntry(flag string) string {
	return s.Gate.TrialEntries[flag]
}

// TrialFlagForEntry returns the trial flag guarded by an entry scene id, if any.
func (s *Scenario) TrialFlagForEntry(sceneID string) (string, bool) {
	for _, flag := range TrialFlags {
		if s.Gate.TrialEntries[flag] == sceneID {
			return flag, true
		}
	}
	return "", false
}

// UsesGate reports whether any scene links to GateSentinel.
func (s *Scenario) UsesGate() bool {
	for _, scene := range s.Scenes {
		if scene == nil {
			continue
		}
		for _, target := range scene.Targets() {
			if target == GateSentinel {
				return true
			}
		}
	}
	return false
}

// applyDefaults fills in gate and title settings the document left out.
func (s *Scenario) applyDefaults() {
	if s.Gate.PassScene == "" {
		s.Gate.PassScene = DefaultPassScene
	}
	if s.Gate.SelectScene == "" {
		s.Gate.SelectScene = DefaultSelectScene
	}
	if s.Gate.ClearedText == "" {
		s.Gate.ClearedText = DefaultClearedText
	}
	if s.Gate.TrialEntries == nil {
		s.Gate.TrialEntries = make(map[string]string, len(TrialFlags))
	}
	for i, flag := range TrialFlags {
		if s.Gate.TrialEntries[flag] == "" {
			s.Gate.TrialEntries[flag] = DefaultTrialEntries[i]
		}
	}

	if s.TitleScene == "" {
		for _, id := range s.SceneIDs() {
			if s.Scenes[id].Type == SceneTypeStart {
				s.TitleScene = id
				break
			}
		}
	}
}
