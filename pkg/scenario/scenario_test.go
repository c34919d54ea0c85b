package scenario

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trialsJSON = `{
	"name": "Trials",
	"startScene": "c1_1",
	"scenes": {
		"start": {"type": "start", "text": "Title", "next": "c1_1"},
		"c1_1": {"type": "dialogue", "text": "Begin", "next": "CHECK_TRIALS"},
		"trials": {"type": "choice", "text": "Pick a trial", "choices": [{"text": "Trial A", "next": "trialA_entry"}]},
		"trialA_entry": {"type": "dialogue", "text": "Trial A", "action": "mark_trialA", "next": "CHECK_TRIALS"},
		"nextChapter": {"type": "dialogue", "text": "Ch.2"}
	}
}`

func TestParse_JSON(t *testing.T) {
	s, err := Parse([]byte(trialsJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "c1_1", s.StartScene)
	assert.Equal(t, "start", s.TitleScene, "title scene defaults to the start-typed scene")
	assert.Equal(t, DefaultPassScene, s.Gate.PassScene)
	assert.Equal(t, DefaultSelectScene, s.Gate.SelectScene)
	assert.Equal(t, "trialA_entry", s.TrialEntry(FlagTrialA))
	assert.True(t, s.UsesGate())

	scene, err := s.Get("trials")
	require.NoError(t, err)
	assert.Equal(t, "trials", scene.ID, "scene id is filled from its key")
	assert.Equal(t, SceneTypeChoice, scene.Type)
	require.Len(t, scene.Choices, 1)
	assert.Equal(t, "trialA_entry", scene.Choices[0].Next)
}

func TestParse_YAML(t *testing.T) {
	doc := `
startScene: intro
gate:
  passScene: finale
  selectScene: hub
scenes:
  intro:
    type: Dialogue
    text: Hello
    next: CHECK_TRIALS
  hub:
    type: choice
    text: Where to?
    choices:
      - text: Trial A
        next: trialA_entry
  trialA_entry:
    type: dialogue
    text: A
    action: mark_trialA
    prev: hub
  finale:
    type: ending
    text: Done
`
	s, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "finale", s.Gate.PassScene)
	assert.Equal(t, "hub", s.Gate.SelectScene)
	assert.Equal(t, "", s.TitleScene)

	intro, err := s.Get("intro")
	require.NoError(t, err)
	assert.Equal(t, SceneTypeDialogue, intro.Type, "scene type is case-insensitive")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{
			name:    "missing start scene",
			doc:     `{"scenes": {"a": {"type": "ending", "text": "x"}}}`,
			problem: "startScene is required",
		},
		{
			name:    "no scenes",
			doc:     `{"startScene": "a", "scenes": {}}`,
			problem: "scenario has no scenes",
		},
		{
			name:    "missing type",
			doc:     `{"startScene": "a", "scenes": {"a": {"text": "x"}}}`,
			problem: `scene "a" is missing type`,
		},
		{
			name:    "dangling next with suggestion",
			doc:     `{"startScene": "intro", "scenes": {"intro": {"type": "dialogue", "next": "chapter2"}, "chapter1": {"type": "ending"}}}`,
			problem: `scene "intro" links to missing scene "chapter2" (did you mean "chapter1"?)`,
		},
		{
			name:    "choice without choices",
			doc:     `{"startScene": "a", "scenes": {"a": {"type": "choice"}}}`,
			problem: `choice scene "a" has no choices`,
		},
		{
			name:    "choices on dialogue",
			doc:     `{"startScene": "a", "scenes": {"a": {"type": "dialogue", "choices": [{"text": "x", "next": "a"}]}}}`,
			problem: `scene "a" has choices but is type dialogue`,
		},
		{
			name:    "gate without select scene",
			doc:     `{"startScene": "a", "scenes": {"a": {"type": "dialogue", "next": "CHECK_TRIALS"}, "nextChapter": {"type": "ending"}}}`,
			problem: `gate select scene "trials" does not exist`,
		},
		{
			name:    "duplicate ids",
			doc:     `{"startScene": "a", "scenes": {"a": {"type": "ending"}, "a": {"type": "ending"}}}`,
			problem: `duplicate scene id "a"`,
		},
		{
			name:    "missing text",
			doc:     `{"startScene": "a", "scenes": {"a": {"type": "dialogue", "next": "b"}, "b": {"type": "ending", "text": "x"}}}`,
			problem: `scene "a" is missing text`,
		},
		{
			name:    "mismatched id",
			doc:     `{"startScene": "a", "scenes": {"a": {"id": "b", "type": "ending"}}}`,
			problem: `scene "a" declares mismatched id "b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatJSON)
			require.Error(t, err)

			var de *DataError
			require.True(t, errors.As(err, &de), "expected DataError, got %T", err)
			assert.Contains(t, de.Problems, tt.problem)
		})
	}
}

func TestParse_NullScene(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{
			name:   "json",
			doc:    `{"startScene": "a", "scenes": {"a": {"type": "dialogue", "text": "x", "next": "CHECK_TRIALS"}, "b": null}}`,
			format: FormatJSON,
		},
		{
			name:   "yaml",
			doc:    "startScene: a\nscenes:\n  a: {type: dialogue, text: x, next: CHECK_TRIALS}\n  b: ~\n",
			format: FormatYAML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = Parse([]byte(tt.doc), tt.format)
			})

			var de *DataError
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Problems, `scene "b" is empty`)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"startScene": `), FormatJSON)
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Error(t, de.Err)

	_, err = Parse([]byte(`{"startScene": "a", "scenes": {"a": {"type": "cutscene"}}}`), FormatJSON)
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "unknown scene type")

	_, err = Parse([]byte("startScene: a\nscenes:\n  a: {type: ending}\n  a: {type: ending}\n"), FormatYAML)
	require.ErrorAs(t, err, &de, "duplicate YAML keys are rejected by the decoder")
}

func TestParse_Strict(t *testing.T) {
	doc := `{"startScene": "a", "author": "me", "scenes": {"a": {"type": "ending", "text": "x"}}}`

	_, err := Parse([]byte(doc), FormatJSON)
	assert.NoError(t, err, "unknown fields are tolerated by default")

	_, err = Parse([]byte(doc), FormatJSON, Strict())
	assert.Error(t, err)
}

func TestScenario_GetMissing(t *testing.T) {
	s, err := Parse([]byte(trialsJSON), FormatJSON)
	require.NoError(t, err)

	_, err = s.Get("nonexistent_id")
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.json")
	require.NoError(t, os.WriteFile(path, []byte(trialsJSON), 0o644))

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Trials", s.Name)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.json"))
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, filepath.Join(dir, "missing.json"), de.Source)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scenario.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(trialsJSON))
	}))
	defer srv.Close()

	s, err := Load(context.Background(), srv.URL+"/scenario.json")
	require.NoError(t, err)
	assert.Equal(t, "c1_1", s.StartScene)

	_, err = Load(context.Background(), srv.URL+"/missing.json")
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.True(t, strings.Contains(err.Error(), "404"))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		id   string
		kind ActionKind
		flag string
	}{
		{"", ActionNone, ""},
		{"mark_trialA", ActionMarkTrialA, FlagTrialA},
		{"mark_trialB", ActionMarkTrialB, FlagTrialB},
		{"mark_trialC", ActionMarkTrialC, FlagTrialC},
		{"play_sound", ActionUnrecognized, ""},
	}
	for _, tt := range tests {
		kind := ParseAction(tt.id)
		if kind != tt.kind {
			t.Errorf("ParseAction(%q) = %v, want %v", tt.id, kind, tt.kind)
		}
		flag, ok := kind.Flag()
		if flag != tt.flag || ok != (tt.flag != "") {
			t.Errorf("%v.Flag() = %q, %v", kind, flag, ok)
		}
	}
}
