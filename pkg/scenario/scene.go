package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GateSentinel is the reserved target id that resolves at runtime to either the
// gate's pass scene or its select scene, depending on trial progress.
const GateSentinel = "CHECK_TRIALS"

// SceneType controls which navigation controls a scene offers.
type SceneType string

const (
	SceneTypeStart    SceneType = "start"
	SceneTypeDialogue SceneType = "dialogue"
	SceneTypeChoice   SceneType = "choice"
	SceneTypeEnding   SceneType = "ending"
)

// ParseSceneType normalizes a scene type string. Matching is case-insensitive.
func ParseSceneType(s string) (SceneType, error) {
	switch t := SceneType(strings.ToLower(strings.TrimSpace(s))); t {
	case SceneTypeStart, SceneTypeDialogue, SceneTypeChoice, SceneTypeEnding:
		return t, nil
	default:
		return "", fmt.Errorf("unknown scene type %q", s)
	}
}

func (t *SceneType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSceneType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *SceneType) UnmarshalText(text []byte) error {
	parsed, err := ParseSceneType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scene is a single screen of the story. Scenes are immutable once loaded.
type Scene struct {
	ID      string    `json:"id" yaml:"id"`
	Type    SceneType `json:"type" yaml:"type"`
	Text    string    `json:"text" yaml:"text"`
	Image   string    `json:"image,omitempty" yaml:"image,omitempty"`
	Next    string    `json:"next,omitempty" yaml:"next,omitempty"`
	Prev    string    `json:"prev,omitempty" yaml:"prev,omitempty"`
	Action  string    `json:"action,omitempty" yaml:"action,omitempty"`
	Choices []Choice  `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Choice is one selectable option on a choice scene.
type Choice struct {
	Text string `json:"text" yaml:"text"`
	Next string `json:"next" yaml:"next"`
}

// Targets returns every scene id this scene can transition to, in authoring order.
func (s *Scene) Targets() []string {
	var out []string
	if s.Next != "" {
		out = append(out, s.Next)
	}
	if s.Prev != "" {
		out = append(out, s.Prev)
	}
	for _, c := range s.Choices {
		out = append(out, c.Next)
	}
	return out
}
