package engine

import (
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

// RenderInstruction is everything a renderer needs to draw one scene. Renderers
// draw it as given and make no game decisions of their own.
type RenderInstruction struct {
	SceneID    string             `json:"scene_id"`
	SceneType  scenario.SceneType `json:"scene_type"`
	Text       string             `json:"text"`
	ImagePath  string             `json:"image_path,omitempty"`
	ShowNext   bool               `json:"show_next"`
	ShowPrev   bool               `json:"show_prev"`
	ShowStart  bool               `json:"show_start"`
	Choices    []RenderChoice     `json:"choices,omitempty"` // nil unless the scene offers choices
	IsEnding   bool               `json:"is_ending"`
	BackTarget string             `json:"back_target,omitempty"` // where Back would land
	Generation uint64             `json:"generation"`
}

// RenderChoice is a visible choice. OnSelect is the id to pass to SelectChoice.
type RenderChoice struct {
	Text     string `json:"text"`
	OnSelect string `json:"on_select"`
}

// Renderer draws render instructions emitted by the engine.
type Renderer interface {
	Render(RenderInstruction)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(RenderInstruction)

func (f RendererFunc) Render(ri RenderInstruction) {
	f(ri)
}

// MultiRenderer fans one instruction out to several renderers in order.
type MultiRenderer []Renderer

func (m MultiRenderer) Render(ri RenderInstruction) {
	for _, r := range m {
		if r != nil {
			r.Render(ri)
		}
	}
}

// instruction builds the render instruction for scene against the live state.
func (e *Engine) instruction(scene *scenario.Scene) RenderInstruction {
	ri := RenderInstruction{
		SceneID:    scene.ID,
		SceneType:  scene.Type,
		Text:       scene.Text,
		ImagePath:  e.imagePath(scene.Image),
		Generation: e.generation,
	}

	switch scene.Type {
	case scenario.SceneTypeStart:
		ri.ShowStart = true
	case scenario.SceneTypeEnding:
		ri.IsEnding = true
	case scenario.SceneTypeChoice:
		if e.selectionCleared(scene) {
			ri.Text = e.scenario.Gate.ClearedText
			ri.ShowNext = true
		} else {
			ri.Choices = e.visibleChoices(scene.Choices)
		}
		ri.BackTarget, ri.ShowPrev = e.backTarget(scene)
	default:
		ri.ShowNext = scene.Next != ""
		ri.BackTarget, ri.ShowPrev = e.backTarget(scene)
	}
	return ri
}

// selectionCleared reports whether scene is the trial selection scene shown
// after every trial is done. It then reads as a congratulation with an advance
// control instead of a menu.
func (e *Engine) selectionCleared(scene *scenario.Scene) bool {
	return scene.Type == scenario.SceneTypeChoice &&
		scene.ID == e.scenario.Gate.SelectScene &&
		e.state.Flags.AllCleared()
}

// visibleChoices drops choices that enter a trial already cleared.
func (e *Engine) visibleChoices(choices []scenario.Choice) []RenderChoice {
	out := make([]RenderChoice, 0, len(choices))
	for _, c := range choices {
		if flag, ok := e.scenario.TrialFlagForEntry(c.Next); ok && e.state.Flags.Get(flag) {
			continue
		}
		out = append(out, RenderChoice{Text: c.Text, OnSelect: c.Next})
	}
	return out
}

// backTarget reports where Back would go from scene.
func (e *Engine) backTarget(scene *scenario.Scene) (string, bool) {
	if scene.Prev != "" {
		if scene.Prev == scenario.GateSentinel {
			return e.resolveGate(), true
		}
		return scene.Prev, true
	}
	return e.state.History.Peek()
}

func (e *Engine) imagePath(image string) string {
	if image == "" || e.assetPrefix == "" {
		return image
	}
	if strings.Contains(image, "://") || strings.HasPrefix(image, "/") {
		return image
	}
	return strings.TrimSuffix(e.assetPrefix, "/") + "/" + image
}
