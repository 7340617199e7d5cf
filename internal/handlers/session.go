package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionView is the observable session state exposed to clients.
type SessionView struct {
	GameState   state.GameState `json:"game_state"`
	Turns       []story.Turn    `json:"turns"`
	Suggestions []string        `json:"suggestions"`
	InFlight    bool            `json:"in_flight"`
}

func sessionView(eng *engine.Engine) SessionView {
	return SessionView{
		GameState:   eng.GameState(),
		Turns:       eng.Turns(),
		Suggestions: eng.Suggestions(),
		InFlight:    eng.InFlight(),
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

// SessionHandler serves the current session snapshot.
type SessionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSessionHandler(eng *engine.Engine, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{engine: eng, logger: logger}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeJSON(w, h.logger, http.StatusMethodNotAllowed,
			ErrorResponse{Error: "Method not allowed. Only GET is supported at /v1/session."})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, sessionView(h.engine))
}
