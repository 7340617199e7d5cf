package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/pkg/state"
)

// SettingsRequest changes session settings. Image quality takes effect
// on the next image request only; past images are never regenerated.
type SettingsRequest struct {
	ImageQuality state.ImageQuality `json:"image_quality"`
}

// SettingsHandler updates session settings.
type SettingsHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSettingsHandler(eng *engine.Engine, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{engine: eng, logger: logger}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPut {
		writeJSON(w, h.logger, http.StatusMethodNotAllowed,
			ErrorResponse{Error: "Method not allowed. Only PUT is supported at /v1/settings."})
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeJSON(w, h.logger, http.StatusBadRequest,
			ErrorResponse{Error: "Invalid request body. Expected JSON with 'image_quality' field."})
		return
	}

	if err := h.engine.SetImageQuality(req.ImageQuality); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	h.logger.Info("Image quality updated", "quality", req.ImageQuality)
	writeJSON(w, h.logger, http.StatusOK, sessionView(h.engine))
}
