package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/scene-engine/internal/session"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites against a running scene-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	ScenarioOverride  string // If set, overrides the scenario for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(content, &suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
		}
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite opens a session, plays every step, then closes the session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	scenarioFile := suite.Scenario
	if r.ScenarioOverride != "" {
		scenarioFile = r.ScenarioOverride
	}

	view, err := CreateSession(ctx, r.Client, r.BaseURL, scenarioFile)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	id := view.ID
	result.Session = id

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Op == OpReopen {
			stepResult, id = r.reopen(ctx, suite.Name, step, id, scenarioFile)
			result.Session = id
		} else {
			stepResult = r.runStep(ctx, suite.Name, id, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	if err := DeleteSession(ctx, r.Client, r.BaseURL, id); err != nil {
		r.Logger("    failed to close session %s: %v", id, err)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) reopen(ctx context.Context, testName string, step TestStep, id uuid.UUID, scenarioFile string) (TestResult, uuid.UUID) {
	start := time.Now()
	res := TestResult{TestName: testName, StepName: step.Name, IsReopen: true}

	if err := DeleteSession(ctx, r.Client, r.BaseURL, id); err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		return res, id
	}
	view, err := CreateSession(ctx, r.Client, r.BaseURL, scenarioFile)
	if err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		return res, id
	}
	res.Error = CheckExpectations(step.Expectations, view, http.StatusCreated, nil)
	res.Success = res.Error == nil
	res.Duration = time.Since(start)
	return res, view.ID
}

func (r *Runner) runStep(ctx context.Context, testName string, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	res := TestResult{TestName: testName, StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	view, status, err := PostOp(stepCtx, r.Client, r.BaseURL, id, step.Op, step.Next)
	var statusErr *StatusError
	if err != nil && !errors.As(err, &statusErr) {
		res.Error = err
		res.Duration = time.Since(start)
		return res
	}

	// A refused op leaves the session where it was; check against the live view.
	if statusErr != nil {
		if view, err = GetSession(stepCtx, r.Client, r.BaseURL, id); err != nil {
			res.Error = fmt.Errorf("failed to read session after refused op: %w", err)
			res.Duration = time.Since(start)
			return res
		}
	}

	res.Error = CheckExpectations(step.Expectations, view, status, statusErr)
	res.Success = res.Error == nil
	res.Duration = time.Since(start)
	return res
}

// CheckExpectations compares a session view against exp and reports every mismatch
func CheckExpectations(exp Expectations, view session.View, status int, statusErr *StatusError) error {
	var problems []string
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch {
	case exp.Status != nil && *exp.Status != status:
		fail("status: expected %d, got %d", *exp.Status, status)
	case exp.Status == nil && statusErr != nil:
		fail("unexpected refusal: %v", statusErr)
	}

	ri := view.Render
	if exp.Scene != nil && *exp.Scene != ri.SceneID {
		fail("scene: expected %q, got %q", *exp.Scene, ri.SceneID)
	}
	if exp.SceneType != nil && *exp.SceneType != string(ri.SceneType) {
		fail("scene_type: expected %q, got %q", *exp.SceneType, ri.SceneType)
	}

	if exp.Choices != nil {
		got := make([]string, 0, len(ri.Choices))
		for _, c := range ri.Choices {
			got = append(got, c.OnSelect)
		}
		if !slices.Equal(exp.Choices, got) {
			fail("choices: expected %v, got %v", exp.Choices, got)
		}
	}
	if exp.NoChoices && len(ri.Choices) > 0 {
		fail("choices: expected none, got %d", len(ri.Choices))
	}

	for flag, want := range exp.Flags {
		if got := view.State.Flags.Get(flag); got != want {
			fail("flag %s: expected %v, got %v", flag, want, got)
		}
	}
	if exp.HistoryLen != nil && *exp.HistoryLen != len(view.State.History) {
		fail("history_len: expected %d, got %d", *exp.HistoryLen, len(view.State.History))
	}

	checkBool := func(name string, want *bool, got bool) {
		if want != nil && *want != got {
			fail("%s: expected %v, got %v", name, *want, got)
		}
	}
	checkBool("show_next", exp.ShowNext, ri.ShowNext)
	checkBool("show_prev", exp.ShowPrev, ri.ShowPrev)
	checkBool("is_ending", exp.IsEnding, ri.IsEnding)

	if exp.BackTarget != nil && *exp.BackTarget != ri.BackTarget {
		fail("back_target: expected %q, got %q", *exp.BackTarget, ri.BackTarget)
	}

	for _, s := range exp.TextContains {
		if !strings.Contains(ri.Text, s) {
			fail("text should contain %q", s)
		}
	}
	for _, s := range exp.TextNotContains {
		if strings.Contains(ri.Text, s) {
			fail("text should not contain %q", s)
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
