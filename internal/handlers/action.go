package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/pkg/chat"
)

// ActionHandler submits player actions to the session.
type ActionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewActionHandler(eng *engine.Engine, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{engine: eng, logger: logger}
}

func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for action endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeJSON(w, h.logger, http.StatusMethodNotAllowed,
			ErrorResponse{Error: "Method not allowed. Only POST is supported at /v1/action."})
		return
	}

	var req chat.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeJSON(w, h.logger, http.StatusBadRequest,
			ErrorResponse{Error: "Invalid request body. Expected JSON with 'action' field."})
		return
	}

	err := h.engine.Submit(r.Context(), req.Action)
	switch {
	case errors.Is(err, engine.ErrEmptyAction):
		writeJSON(w, h.logger, http.StatusBadRequest,
			ErrorResponse{Error: "Action cannot be empty."})
		return
	case errors.Is(err, engine.ErrTurnInFlight):
		writeJSON(w, h.logger, http.StatusConflict,
			ErrorResponse{Error: "A turn is already in flight. Wait for it to complete."})
		return
	case err != nil:
		h.logger.Error("Error processing action", "error", err)
		writeJSON(w, h.logger, http.StatusInternalServerError,
			ErrorResponse{Error: "Failed to process action. Please try again."})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sessionView(h.engine))
}
