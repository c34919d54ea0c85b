package runner

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/scene-engine/internal/handlers"
	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/jwebster45206/scene-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAPI serves the real handlers over the bundled data directory.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewFileStorage(filepath.Join("..", "..", "data"), logger)
	sessions := session.NewManager(store, nil, logger, "images/")

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(nil, sessions.Len, logger))
	sessionHandler := handlers.NewSessionHandler(sessions, logger)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_BundledCases(t *testing.T) {
	srv := newTestAPI(t)
	r := NewRunner(srv.URL)
	r.ErrorHandlingMode = ErrorHandlingExit
	r.Logger = t.Logf

	require.NoError(t, WaitForHealthy(context.Background(), r.Client, r.BaseURL, PollInterval))

	casesDir := filepath.Join("..", "cases")
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "all.yaml"), casesDir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for _, job := range jobs {
		t.Run(job.Name, func(t *testing.T) {
			result, err := r.RunSuite(context.Background(), job.Suite)
			require.NoError(t, err)
			assert.Len(t, result.Results, len(job.Suite.Steps))
			for _, step := range result.Results {
				assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
			}
		})
	}
}

func TestRunner_ReportsMismatch(t *testing.T) {
	srv := newTestAPI(t)
	r := NewRunner(srv.URL)

	wrong := "trials"
	suite := TestSuite{
		Name:     "wrong expectation",
		Scenario: "three_trials.json",
		Steps: []TestStep{
			{Name: "start", Op: "start", Expectations: Expectations{Scene: &wrong}},
			{Name: "advance", Op: "advance"},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scene: expected "trials", got "c1_1"`)
	require.Len(t, result.Results, 2, "continue mode runs every step")
	assert.False(t, result.Results[0].Success)
	assert.True(t, result.Results[1].Success)
}

func TestRunner_UnknownScenario(t *testing.T) {
	srv := newTestAPI(t)
	r := NewRunner(srv.URL)

	_, err := r.RunSuite(context.Background(), TestSuite{Name: "missing", Scenario: "missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCheckExpectations(t *testing.T) {
	yes, no := true, false
	two := 2
	view := session.View{
		Render: engine.RenderInstruction{
			SceneID:   "trials",
			SceneType: scenario.SceneTypeChoice,
			Text:      "Which path do you take?",
			ShowPrev:  true,
			Choices: []engine.RenderChoice{
				{Text: "B", OnSelect: "trialB_entry"},
				{Text: "C", OnSelect: "trialC_entry"},
			},
		},
		State: state.Snapshot{
			CurrentScene: "trials",
			Flags:        state.ProgressFlags{TrialA: true},
			History:      []string{"c1_1", "c1_2"},
		},
	}

	err := CheckExpectations(Expectations{
		Choices:      []string{"trialB_entry", "trialC_entry"},
		Flags:        map[string]bool{"trialA_cleared": true, "trialB_cleared": false},
		HistoryLen:   &two,
		ShowPrev:     &yes,
		IsEnding:     &no,
		TextContains: []string{"path"},
	}, view, http.StatusOK, nil)
	assert.NoError(t, err)

	err = CheckExpectations(Expectations{
		Choices:         []string{"trialC_entry", "trialB_entry"},
		NoChoices:       true,
		Flags:           map[string]bool{"trialA_cleared": false},
		ShowNext:        &yes,
		TextNotContains: []string{"path"},
	}, view, http.StatusOK, nil)
	require.Error(t, err)
	for _, want := range []string{"choices: expected", "expected none", "flag trialA_cleared", "show_next", "should not contain"} {
		assert.Contains(t, err.Error(), want)
	}

	err = CheckExpectations(Expectations{}, view, http.StatusUnprocessableEntity, &StatusError{Status: 422, Message: "scene not found"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected refusal")
}
