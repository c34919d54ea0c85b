package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
	Sessions   int               `json:"sessions"`
}

// Pinger is anything with a health probe, such as the Redis service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	redis    Pinger // nil when broadcasting is disabled
	sessions func() int
	logger   *slog.Logger
}

func NewHealthHandler(redis Pinger, sessions func() int, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		redis:    redis,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if h.redis == nil {
		components["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("Redis health check failed", "error", err)
		components["redis"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "scene-engine",
		Components: components,
	}
	if h.sessions != nil {
		response.Sessions = h.sessions()
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
