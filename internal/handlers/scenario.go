package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/scene-engine/internal/storage"
	"github.com/jwebster45206/scene-engine/pkg/scenario"
)

type ScenarioHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewScenarioHandler(log *slog.Logger, storage storage.Storage) *ScenarioHandler {
	return &ScenarioHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP handles scenario reads
// Routes:
// GET /v1/scenarios            - List scenarios (name -> file name)
// GET /v1/scenarios/{filename} - Read one scenario document
func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.storage.ListScenarios(r.Context())
	if err != nil {
		h.log.Error("Failed to list scenarios", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list scenarios")
		return
	}
	writeJSON(w, h.log, http.StatusOK, scenarios)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid filename")
		return
	}

	s, err := h.storage.GetScenario(r.Context(), filename)
	if err != nil {
		var de *scenario.DataError
		switch {
		case errors.Is(err, storage.ErrScenarioNotFound):
			writeError(w, h.log, http.StatusNotFound, "Scenario not found")
		case errors.As(err, &de):
			h.log.Warn("Scenario failed validation", "filename", filename, "error", err)
			writeError(w, h.log, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("Failed to get scenario", "error", err, "filename", filename)
			writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve scenario")
		}
		return
	}

	writeJSON(w, h.log, http.StatusOK, s)
}
