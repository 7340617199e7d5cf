package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tannerws/mistweaver/internal/services/events"
)

// EventsHandler streams session events (turn lifecycle, image patches)
// over Server-Sent Events so clients can refresh without polling.
type EventsHandler struct {
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewEventsHandler(b *events.Broadcaster, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{broadcaster: b, logger: logger}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, h.logger, http.StatusMethodNotAllowed,
			ErrorResponse{Error: "Method not allowed. Only GET is supported at /v1/events."})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, h.logger, http.StatusInternalServerError,
			ErrorResponse{Error: "Streaming not supported."})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.broadcaster.Subscribe()
	defer cancel()

	h.logger.Debug("SSE client connected", "remote_addr", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Error encoding event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", event.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
