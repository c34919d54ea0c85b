package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenario = `{
	"name": "Trials",
	"startScene": "c1_1",
	"scenes": {
		"start": {"type": "start", "text": "Title", "image": "title.png", "next": "c1_1"},
		"c1_1": {"type": "dialogue", "text": "Begin", "next": "CHECK_TRIALS"},
		"trials": {"type": "choice", "text": "Pick", "choices": [{"text": "Trial A", "next": "trialA_entry"}]},
		"trialA_entry": {"type": "dialogue", "text": "A", "action": "mark_trialA", "next": "CHECK_TRIALS"},
		"nextChapter": {"type": "ending", "text": "Ch.2"}
	}
}`

type recordingPublisher struct {
	mu      sync.Mutex
	renders []engine.RenderInstruction
	started []uuid.UUID
	ended   []uuid.UUID
}

func (p *recordingPublisher) PublishRender(ctx context.Context, id uuid.UUID, ri engine.RenderInstruction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders = append(p.renders, ri)
	return nil
}

func (p *recordingPublisher) PublishSessionStarted(ctx context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, id)
	return nil
}

func (p *recordingPublisher) PublishSessionEnded(ctx context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, id)
	return nil
}

func setupManager(t *testing.T) (*Manager, *recordingPublisher) {
	t.Helper()
	sc, err := scenario.Parse([]byte(testScenario), scenario.FormatJSON)
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddScenario("trials.json", sc)

	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, pub, logger, "images/"), pub
}

func TestManager_CreateShowsTitle(t *testing.T) {
	m, pub := setupManager(t)

	s, err := m.Create(context.Background(), "trials.json")
	require.NoError(t, err)

	view := s.View()
	assert.Equal(t, "start", view.Render.SceneID)
	assert.True(t, view.Render.ShowStart)
	assert.Equal(t, "images/title.png", view.Render.ImagePath)
	assert.Equal(t, "", view.State.CurrentScene)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, []uuid.UUID{s.ID}, pub.started)
	assert.Len(t, pub.renders, 1)
}

func TestManager_CreateUnknownScenario(t *testing.T) {
	m, _ := setupManager(t)
	_, err := m.Create(context.Background(), "missing.json")
	assert.ErrorIs(t, err, storage.ErrScenarioNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestSession_Do(t *testing.T) {
	m, pub := setupManager(t)
	s, err := m.Create(context.Background(), "trials.json")
	require.NoError(t, err)

	view, err := s.Do(OpStart, "")
	require.NoError(t, err)
	assert.Equal(t, "c1_1", view.State.CurrentScene)

	view, err = s.Do(OpAdvance, "")
	require.NoError(t, err)
	assert.Equal(t, "trials", view.Render.SceneID)
	require.Len(t, view.Render.Choices, 1)

	view, err = s.Do(OpChoice, "trialA_entry")
	require.NoError(t, err)
	assert.True(t, view.State.Flags.TrialA)

	view, err = s.Do(OpAdvance, "")
	require.NoError(t, err)
	assert.Equal(t, "trials", view.Render.SceneID)
	assert.Empty(t, view.Render.Choices)

	view, err = s.Do(OpChoice, "bogus")
	assert.ErrorIs(t, err, scenario.ErrSceneNotFound)
	assert.Equal(t, "trials", view.State.CurrentScene)

	_, err = s.Do(OpChoice, "")
	assert.Error(t, err)

	view, err = s.Do(OpBack, "")
	require.NoError(t, err)
	assert.Equal(t, "trialA_entry", view.State.CurrentScene)

	view, err = s.Do(OpRestart, "")
	require.NoError(t, err)
	assert.Equal(t, "c1_1", view.State.CurrentScene)
	assert.False(t, view.State.Flags.TrialA)
	assert.Empty(t, view.State.History)

	// title + start, advance, choice, advance, back, restart
	assert.Len(t, pub.renders, 7)
}

func TestSession_ConcurrentOps(t *testing.T) {
	m, _ := setupManager(t)
	s, err := m.Create(context.Background(), "trials.json")
	require.NoError(t, err)
	_, err = s.Do(OpStart, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ops := []Op{OpAdvance, OpBack, OpRestart}
			_, _ = s.Do(ops[i%len(ops)], "")
		}(i)
	}
	wg.Wait()

	view := s.View()
	assert.NotEmpty(t, view.State.CurrentScene)
}

func TestManager_Delete(t *testing.T) {
	m, pub := setupManager(t)
	s, err := m.Create(context.Background(), "trials.json")
	require.NoError(t, err)

	assert.True(t, m.Delete(context.Background(), s.ID))
	assert.False(t, m.Delete(context.Background(), s.ID))
	_, ok := m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, []uuid.UUID{s.ID}, pub.ended)
}

func TestParseOp(t *testing.T) {
	for _, in := range []string{"start", "ADVANCE", "back", "choice", "restart"} {
		_, err := ParseOp(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseOp("jump")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, scenario.ErrSceneNotFound))
}
