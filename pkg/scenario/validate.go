package scenario

import (
	"fmt"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance for which an unresolved
// target gets a "did you mean" hint.
const maxSuggestDistance = 3

// validate returns every structural problem in the graph, in a stable order.
func (s *Scenario) validate() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(s.Scenes) == 0 {
		add("scenario has no scenes")
		return problems
	}

	if s.StartScene == "" {
		add("startScene is required")
	} else if s.StartScene == GateSentinel {
		add("startScene cannot be %s", GateSentinel)
	} else if !s.Has(s.StartScene) {
		add("startScene %q does not exist%s", s.StartScene, s.suggest(s.StartScene))
	}

	if s.TitleScene != "" && !s.Has(s.TitleScene) {
		add("titleScene %q does not exist%s", s.TitleScene, s.suggest(s.TitleScene))
	}

	for _, id := range s.SceneIDs() {
		scene := s.Scenes[id]
		if scene == nil {
			add("scene %q is empty", id)
			continue
		}
		if scene.ID == "" {
			scene.ID = id
		} else if scene.ID != id {
			add("scene %q declares mismatched id %q", id, scene.ID)
		}
		if id == GateSentinel {
			add("scene id %s is reserved", GateSentinel)
		}

		if scene.Type != "" && scene.Type != SceneTypeStart && scene.Text == "" {
			add("scene %q is missing text", id)
		}

		switch scene.Type {
		case "":
			add("scene %q is missing type", id)
		case SceneTypeChoice:
			if len(scene.Choices) == 0 {
				add("choice scene %q has no choices", id)
			}
		default:
			if len(scene.Choices) > 0 {
				add("scene %q has choices but is type %s", id, scene.Type)
			}
		}

		for i, c := range scene.Choices {
			if c.Text == "" {
				add("scene %q choice %d is missing text", id, i+1)
			}
			if c.Next == "" {
				add("scene %q choice %d is missing next", id, i+1)
			}
		}

		for _, target := range scene.Targets() {
			if target == "" || target == GateSentinel || s.Has(target) {
				continue
			}
			add("scene %q links to missing scene %q%s", id, target, s.suggest(target))
		}
	}

	if s.UsesGate() {
		pass := s.Gate.PassScene
		if pass == "" {
			pass = DefaultPassScene
		}
		if !s.Has(pass) {
			add("gate pass scene %q does not exist%s", pass, s.suggest(pass))
		}
		sel := s.Gate.SelectScene
		if sel == "" {
			sel = DefaultSelectScene
		}
		if !s.Has(sel) {
			add("gate select scene %q does not exist%s", sel, s.suggest(sel))
		}
	}

	flags := make([]string, 0, len(s.Gate.TrialEntries))
	for flag := range s.Gate.TrialEntries {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		if !slices.Contains(TrialFlags[:], flag) {
			add("gate trialEntries has unknown trial flag %q", flag)
		}
	}

	return problems
}

// suggest returns a " (did you mean ...?)" hint for a missing id, or "".
func (s *Scenario) suggest(missing string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, id := range s.SceneIDs() {
		if d := levenshtein.ComputeDistance(missing, id); d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
