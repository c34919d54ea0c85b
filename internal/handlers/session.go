package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/internal/logger"
	"github.com/jwebster45206/scene-engine/internal/session"
	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

type SessionHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewSessionHandler(sessions *session.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateSessionRequest defines the request body for opening a session
type CreateSessionRequest struct {
	Scenario string `json:"scenario"` // Required: scenario filename
}

// OpRequest carries the choice target for the choice operation
type OpRequest struct {
	Next string `json:"next,omitempty"`
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST   /v1/sessions           - Open a session on a scenario (shows its title)
// GET    /v1/sessions/{id}      - Current render instruction and state
// DELETE /v1/sessions/{id}      - End a session
// POST   /v1/sessions/{id}/{op} - Apply start, advance, back, choice or restart
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleCreate(w, r)
		return
	case len(parts) == 0:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	case len(parts) > 2:
		writeError(w, h.logger, http.StatusNotFound, "Unknown route")
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleOp(w, r, id, parts[1])
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleRead(w, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Scenario = strings.TrimSpace(req.Scenario)
	if req.Scenario == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scenario field is required")
		return
	}
	if strings.Contains(req.Scenario, "..") || strings.ContainsAny(req.Scenario, `/\`) {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid scenario filename")
		return
	}

	s, err := h.sessions.Create(r.Context(), req.Scenario)
	if err != nil {
		var de *scenario.DataError
		switch {
		case errors.Is(err, storage.ErrScenarioNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Scenario not found")
		case errors.As(err, &de):
			// No play is possible without a valid scenario.
			h.logger.Error("Scenario failed to load", "scenario", req.Scenario, "error", err)
			writeError(w, h.logger, http.StatusServiceUnavailable, "Failed to load scenario: "+err.Error())
		default:
			logger.WithError(h.logger, err).Error("Failed to create session", "scenario", req.Scenario)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, s.View())
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, id uuid.UUID) {
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s.View())
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if !h.sessions.Delete(r.Context(), id) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleOp(w http.ResponseWriter, r *http.Request, id uuid.UUID, rawOp string) {
	op, err := session.ParseOp(rawOp)
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}

	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	var req OpRequest
	if op == session.OpChoice {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if req.Next == "" {
			writeError(w, h.logger, http.StatusBadRequest, "next field is required for choice")
			return
		}
	}

	view, err := s.Do(op, req.Next)
	if err != nil {
		if errors.Is(err, scenario.ErrSceneNotFound) {
			writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}
