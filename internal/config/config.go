package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level // parsed from LogLevelRaw
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	DataDir     string     `env:"DATA_DIR" envDefault:"./data"`

	// Scenario is a file name under DataDir/scenarios, a path, or a URL.
	Scenario string `env:"SCENARIO"`

	// RedisURL enables render event broadcasting when set.
	RedisURL string `env:"REDIS_URL"`

	// AssetPrefix is prepended to relative scene image paths.
	AssetPrefix string        `env:"ASSET_PREFIX" envDefault:"images/"`
	GateDelay   time.Duration `env:"GATE_DELAY" envDefault:"400ms"`

	// ConsoleLog receives console logs, since the console owns the terminal.
	ConsoleLog string `env:"CONSOLE_LOG" envDefault:"scene-console.log"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	if cfg.GateDelay < 0 {
		return nil, fmt.Errorf("GATE_DELAY must not be negative, got %s", cfg.GateDelay)
	}
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
