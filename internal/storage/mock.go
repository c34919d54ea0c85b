package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	scenarios map[string]*scenario.Scenario
	err       error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		scenarios: make(map[string]*scenario.Scenario),
	}
}

// AddScenario adds a scenario to the mock storage
func (m *MockStorage) AddScenario(filename string, s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[filename] = s
}

// SetError makes every call fail with err
func (m *MockStorage) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.scenarios))
	for filename, s := range m.scenarios {
		out[s.Name] = filename
	}
	return out, nil
}

func (m *MockStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.scenarios[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	return s, nil
}
