package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("one or more scenarios are invalid")

type validateOptions struct {
	strict bool
	format string // "text" | "json"
}

// FileResult is the outcome for one scenario source.
type FileResult struct {
	Source   string   `json:"source"`
	Valid    bool     `json:"valid"`
	Scenes   int      `json:"scenes,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newRootCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files",
		Long: `Validate scenario documents (JSON or YAML, local path or http(s) URL).

Checks the scene graph for dangling links, missing gate scenes and malformed
choices, then lints naming and reachability. With --strict, unknown fields
and lint warnings fail validation too.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "reject unknown fields and treat warnings as errors")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text|json)")
	return cmd
}

func runValidate(ctx context.Context, opts *validateOptions, sources []string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]FileResult, 0, len(sources))
	failed := false
	for _, source := range sources {
		r := validateSource(ctx, source, opts.strict)
		failed = failed || !r.Valid
		results = append(results, r)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		writeText(w, results)
	}

	if failed {
		return errInvalid
	}
	return nil
}

func writeText(w io.Writer, results []FileResult) {
	for _, r := range results {
		fmt.Fprintf(w, "Validating %s...\n", r.Source)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warn)
		}
		if r.Valid {
			fmt.Fprintf(w, "Scenario is valid (%d scenes)\n", r.Scenes)
		}
	}
}

func validateSource(ctx context.Context, source string, strict bool) FileResult {
	r := FileResult{Source: source}

	if !isURL(source) {
		if msg := checkFilename(source); msg != "" {
			r.Errors = append(r.Errors, msg)
			return r
		}
	}

	var parseOpts []scenario.ParseOption
	if strict {
		parseOpts = append(parseOpts, scenario.Strict())
	}

	sc, err := scenario.Load(ctx, source, parseOpts...)
	if err != nil {
		var de *scenario.DataError
		if errors.As(err, &de) && len(de.Problems) > 0 {
			r.Errors = append(r.Errors, de.Problems...)
		} else {
			r.Errors = append(r.Errors, err.Error())
		}
		return r
	}

	r.Scenes = len(sc.Scenes)
	r.Warnings = lint(sc)
	r.Valid = !strict || len(r.Warnings) == 0
	return r
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

var (
	validIDRegex       = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func checkFilename(path string) string {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Sprintf("scenario file must have a .json, .yaml or .yml extension: %s", base)
	}

	// Allow 'x.' prefix for experimental scenarios
	name := strings.TrimPrefix(strings.TrimSuffix(base, filepath.Ext(base)), "x.")
	if !validFilenameRegex.MatchString(name) {
		return fmt.Sprintf("scenario filename '%s' must be lowercase snake_case (e.g., three_trials.json)", base)
	}
	return ""
}

// lint reports problems that do not stop a scenario from playing.
func lint(sc *scenario.Scenario) []string {
	var warnings []string

	for _, id := range sc.SceneIDs() {
		if !validIDRegex.MatchString(id) {
			warnings = append(warnings, fmt.Sprintf("scene ID '%s' should contain only letters, digits and underscores", id))
		}
	}

	reachable := reachableScenes(sc)
	hasEnding := false
	for _, id := range sc.SceneIDs() {
		scene := sc.Scenes[id]
		if scene.Type == scenario.SceneTypeEnding {
			hasEnding = true
		}
		if scenario.ParseAction(scene.Action) == scenario.ActionUnrecognized {
			warnings = append(warnings, fmt.Sprintf("scene '%s' has unknown action '%s' (it will be ignored)", id, scene.Action))
		}
		if !reachable[id] {
			warnings = append(warnings, fmt.Sprintf("scene '%s' is unreachable from the title or start scene", id))
		}
	}
	if !hasEnding {
		warnings = append(warnings, "scenario has no ending scene")
	}

	return warnings
}

// reachableScenes walks every link from the title and start scenes. The gate
// sentinel reaches both of its outcomes.
func reachableScenes(sc *scenario.Scenario) map[string]bool {
	seen := make(map[string]bool, len(sc.Scenes))
	queue := []string{sc.StartScene, sc.TitleScene}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == scenario.GateSentinel {
			queue = append(queue, sc.Gate.PassScene, sc.Gate.SelectScene)
			continue
		}
		if seen[id] || !sc.Has(id) {
			continue
		}
		seen[id] = true
		queue = append(queue, sc.Scenes[id].Targets()...)
	}
	return seen
}
