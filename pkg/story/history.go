package story

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tannerws/mistweaver/pkg/chat"
)

// History is the ordered turn list for a session. Appends happen from
// the single synchronous turn loop, but image patches arrive from
// detached continuations that may overlap and complete out of order, so
// every mutation is keyed by turn ID and guarded by the mutex.
type History struct {
	mu    sync.RWMutex
	turns []Turn
	index map[uuid.UUID]int
}

func NewHistory() *History {
	return &History{
		turns: make([]Turn, 0),
		index: make(map[uuid.UUID]int),
	}
}

// Append adds a turn to the end of the history.
func (h *History) Append(t Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index[t.ID] = len(h.turns)
	h.turns = append(h.turns, t)
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Turns returns a snapshot of the history.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Last returns the most recent turn, if any.
func (h *History) Last() (Turn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.turns) == 0 {
		return Turn{}, false
	}
	return h.turns[len(h.turns)-1], true
}

// ResolveImage patches the turn with the given ID from pending to a
// terminal image state. The patch is keyed, not positional, so
// concurrent resolutions for different turns never conflict. A turn
// that is not pending is left untouched; resolution happens at most
// once and never reverts.
func (h *History) ResolveImage(id uuid.UUID, img *SceneImage, status ImageStatus) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i, ok := h.index[id]
	if !ok {
		return false
	}
	if h.turns[i].ImageStatus != ImagePending {
		return false
	}
	h.turns[i].Image = img
	h.turns[i].ImageStatus = status
	return true
}

// ChatMessages re-expresses the history as wire-level messages for the
// text backend.
func (h *History) ChatMessages() []chat.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]chat.Message, 0, len(h.turns))
	for _, t := range h.turns {
		out = append(out, t.ChatMessage())
	}
	return out
}
