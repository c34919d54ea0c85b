package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/services/events"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/engine"
)

// Manager holds live sessions in memory. Nothing outlives the process.
type Manager struct {
	storage     storage.Storage
	publisher   events.Publisher
	logger      *slog.Logger
	assetPrefix string

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager. publisher may be nil.
func NewManager(store storage.Storage, publisher events.Publisher, logger *slog.Logger, assetPrefix string) *Manager {
	return &Manager{
		storage:     store,
		publisher:   publisher,
		logger:      logger,
		assetPrefix: assetPrefix,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Create loads a scenario and opens a session showing its title scene.
func (m *Manager) Create(ctx context.Context, scenarioFile string) (*Session, error) {
	sc, err := m.storage.GetScenario(ctx, scenarioFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}

	id := uuid.New()
	s := &Session{
		ID:           id,
		ScenarioFile: scenarioFile,
		CreatedAt:    time.Now(),
		publisher:    m.publisher,
		logger:       logger.WithSessionID(m.logger, id.String()),
	}
	s.engine = engine.New(sc, s, s.logger, engine.WithAssetPrefix(m.assetPrefix))

	if m.publisher != nil {
		if err := m.publisher.PublishSessionStarted(ctx, id); err != nil {
			s.logger.Warn("Failed to publish session start", "error", err)
		}
	}

	s.mu.Lock()
	s.engine.Title()
	s.mu.Unlock()

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.logger.Info("Session created", "scenario", scenarioFile)
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete ends a session. It reports whether the session existed.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok && m.publisher != nil {
		if err := m.publisher.PublishSessionEnded(ctx, id); err != nil {
			m.logger.Warn("Failed to publish session end", "session_id", id, "error", err)
		}
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
