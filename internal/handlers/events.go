package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/services/events"
)

// KeepaliveInterval is how often an idle stream gets a comment line.
var KeepaliveInterval = 30 * time.Second

// Subscriber opens a live feed of one session's events.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID uuid.UUID) (*events.Subscription, error)
}

// EventsHandler streams session events to remote renderers as Server-Sent Events
type EventsHandler struct {
	subscriber Subscriber
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(subscriber Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		logger:     logger,
	}
}

// ServeHTTP handles SSE requests for session events
// GET /v1/events/sessions/{sessionID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "events" || pathParts[2] != "sessions" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/sessions/{sessionID}")
		return
	}

	sessionID, err := uuid.Parse(pathParts[3])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if h.subscriber == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event streaming requires Redis")
		return
	}

	sub, err := h.subscriber.Subscribe(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to subscribe to session events", "session_id", sessionID.String(), "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Failed to subscribe to session events")
		return
	}
	defer func() {
		if err := sub.Close(); err != nil {
			h.logger.Error("Failed to close subscription", "error", err)
		}
	}()

	h.logger.Info("SSE connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	// Streams outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	keepalive := time.NewTicker(KeepaliveInterval)
	defer keepalive.Stop()

	h.sendSSE(w, rc, "connected", map[string]string{
		"session_id": sessionID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "session_id", sessionID.String())
			return

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			h.sendSSE(w, rc, string(ev.Type), ev)
			if ev.Type == events.EventTypeSessionEnded {
				return
			}

		case <-keepalive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			_ = rc.Flush()
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Debug("Flush not supported", "error", err)
	}
}
