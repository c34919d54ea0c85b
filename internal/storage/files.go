package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

// FileStorage reads scenarios from <dataDir>/scenarios. Parsed scenarios are
// cached by file name since they never change after load.
type FileStorage struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*scenario.Scenario
}

// Ensure FileStorage implements Storage interface
var _ Storage = (*FileStorage)(nil)

func NewFileStorage(dataDir string, logger *slog.Logger) *FileStorage {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &FileStorage{
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[string]*scenario.Scenario),
	}
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (f *FileStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	scenariosDir := filepath.Join(f.dataDir, "scenarios")
	scenarios := make(map[string]string)

	err := filepath.WalkDir(scenariosDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isScenarioFile(path) {
			return nil
		}

		filename := filepath.Base(path)
		s, err := f.GetScenario(ctx, filename)
		if err != nil {
			f.logger.Warn("Skipping invalid scenario file", "path", path, "error", err)
			return nil
		}

		name := s.Name
		if name == "" {
			name = strings.TrimSuffix(filename, filepath.Ext(filename))
		}
		scenarios[name] = filename
		return nil
	})
	if err != nil {
		f.logger.Error("Failed to walk scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	return scenarios, nil
}

func (f *FileStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return nil, fmt.Errorf("invalid scenario filename %q", filename)
	}

	f.mu.RLock()
	s, ok := f.cache[filename]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	path := filepath.Join(f.dataDir, "scenarios", filename)
	f.logger.Debug("Loading scenario", "filename", filename, "full_path", path)

	s, err := scenario.Load(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
		}
		return nil, err
	}

	f.mu.Lock()
	f.cache[filename] = s
	f.mu.Unlock()
	return s, nil
}

// Resolve loads a scenario named by the SCENARIO setting: an http(s) URL or
// path is loaded directly, a bare file name is looked up under the data dir.
func (f *FileStorage) Resolve(ctx context.Context, ref string) (*scenario.Scenario, error) {
	if strings.Contains(ref, "://") || strings.ContainsAny(ref, `/\`) {
		return scenario.Load(ctx, ref)
	}
	return f.GetScenario(ctx, ref)
}
