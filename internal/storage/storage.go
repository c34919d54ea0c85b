package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

// ErrScenarioNotFound is returned when a scenario file does not exist.
var ErrScenarioNotFound = errors.New("scenario not found")

// Storage loads scenario documents. Scenarios are read-only, so there is no save path.
type Storage interface {
	// ListScenarios maps scenario display names to file names.
	ListScenarios(ctx context.Context) (map[string]string, error)
	// GetScenario loads and validates a scenario by file name.
	GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error)
}
