package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special op values that act on the whole session rather than the engine
const (
	// OpReopen deletes the session and opens a fresh one on the same scenario
	OpReopen = "REOPEN_SESSION"
)

// TestSuite defines a complete play-through against one scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name" yaml:"name"`
	Scenario string     `json:"scenario,omitempty" yaml:"scenario,omitempty"` // Used for regular tests
	Steps    []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"`       // Used for regular tests
	Cases    []string   `json:"cases,omitempty" yaml:"cases,omitempty"`       // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one reader input and what the session should look like after it
// Use op: "REOPEN_SESSION" to throw the session away and open a new one
type TestStep struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Op           string       `json:"op" yaml:"op"`                         // start, advance, back, choice, restart
	Next         string       `json:"next,omitempty" yaml:"next,omitempty"` // choice target
	Expectations Expectations `json:"expect" yaml:"expect"`
}

// Expectations defines what to check after a step executes. Nil fields are not checked.
type Expectations struct {
	Status     *int            `json:"status,omitempty" yaml:"status,omitempty"` // HTTP status, 200 if unset
	Scene      *string         `json:"scene,omitempty" yaml:"scene,omitempty"`
	SceneType  *string         `json:"scene_type,omitempty" yaml:"scene_type,omitempty"`
	Choices    []string        `json:"choices,omitempty" yaml:"choices,omitempty"` // visible choice targets, in order
	NoChoices  bool            `json:"no_choices,omitempty" yaml:"no_choices,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty" yaml:"flags,omitempty"`
	HistoryLen *int            `json:"history_len,omitempty" yaml:"history_len,omitempty"`
	ShowNext   *bool           `json:"show_next,omitempty" yaml:"show_next,omitempty"`
	ShowPrev   *bool           `json:"show_prev,omitempty" yaml:"show_prev,omitempty"`
	IsEnding   *bool           `json:"is_ending,omitempty" yaml:"is_ending,omitempty"`
	BackTarget *string         `json:"back_target,omitempty" yaml:"back_target,omitempty"`

	TextContains    []string `json:"text_contains,omitempty" yaml:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty" yaml:"text_not_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	IsReopen bool // True for REOPEN_SESSION steps (not counted toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the last session used for this test
}
