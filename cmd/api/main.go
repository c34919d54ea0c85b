package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/scene-engine/internal/config"
	"github.com/jwebster45206/scene-engine/internal/handlers"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/middleware"
	"github.com/jwebster45206/scene-engine/internal/services"
	"github.com/jwebster45206/scene-engine/internal/services/events"
	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Scene Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"broadcast", cfg.RedisURL != "")

	store := storage.NewFileStorage(cfg.DataDir, log)

	// Fail fast on a configured scenario that cannot be played.
	if cfg.Scenario != "" {
		if err := preloadScenario(context.Background(), store, cfg.Scenario, log); err != nil {
			log.Error("Failed to load scenario", "scenario", cfg.Scenario, "error", err)
			os.Exit(1)
		}
	}

	var (
		redisService *services.RedisService
		publisher    events.Publisher
		subscriber   handlers.Subscriber
		pinger       handlers.Pinger
	)
	if cfg.RedisURL != "" {
		redisService = services.NewRedisService(cfg.RedisURL, log)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := redisService.WaitForConnection(ctx, 30, 2*time.Second)
		cancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		broadcaster := events.NewBroadcaster(redisService.GetClient(), log)
		publisher = broadcaster
		subscriber = broadcaster
		pinger = redisService
	}

	sessions := session.NewManager(store, publisher, log, cfg.AssetPrefix)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(pinger, sessions.Len, log)
	mux.Handle("/health", healthHandler)

	scenarioHandler := handlers.NewScenarioHandler(log, store)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	sessionHandler := handlers.NewSessionHandler(sessions, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	eventsHandler := handlers.NewEventsHandler(subscriber, log)
	mux.Handle("/v1/events/sessions/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if redisService != nil {
		if err := redisService.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}

	log.Info("Server exited")
}

// preloadScenario loads the SCENARIO setting once at boot. ref may be a file
// name under the data dir, a path, or a URL.
func preloadScenario(ctx context.Context, store *storage.FileStorage, ref string, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sc, err := store.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	log.Info("Scenario loaded", "scenario", ref, "name", sc.Name, "scenes", len(sc.Scenes))
	return nil
}
