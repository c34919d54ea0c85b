package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/storage"
)

const defaultScenario = "three_trials.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.ConsoleLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file %s: %v\n", cfg.ConsoleLog, err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.SetupWriter(cfg, logFile)

	ref := cfg.Scenario
	if len(os.Args) > 1 {
		ref = os.Args[1]
	}
	if ref == "" {
		ref = defaultScenario
	}

	store := storage.NewFileStorage(cfg.DataDir, log)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sc, loadErr := store.Resolve(ctx, ref)
	cancel()
	if loadErr != nil {
		// The UI shows the failure and refuses to play.
		log.Error("Failed to load scenario", "scenario", ref, "error", loadErr)
	} else {
		log.Info("Scenario loaded", "scenario", ref, "name", sc.Name, "scenes", len(sc.Scenes))
	}

	p := tea.NewProgram(NewConsoleUI(cfg, sc, loadErr, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
