package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeTurnStarted   EventType = "turn.started"
	EventTypeTurnCompleted EventType = "turn.completed"
	EventTypeTurnFailed    EventType = "turn.failed"
	EventTypeImageResolved EventType = "turn.image_resolved"
)

// Event is a session event pushed to subscribers (SSE clients, the
// console UI).
type Event struct {
	Type   EventType              `json:"type"`
	TurnID string                 `json:"turn_id,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster fans session events out to subscribers. Publishing never
// blocks: a subscriber that has fallen behind misses events rather than
// stalling the turn loop.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a subscriber. The returned cancel func must be
// called to release the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber", "subscriber", id, "type", event.Type)
		}
	}
}

// PublishTurnStarted publishes a turn.started event.
func (b *Broadcaster) PublishTurnStarted(turnID uuid.UUID, action string) {
	b.Publish(Event{
		Type:   EventTypeTurnStarted,
		TurnID: turnID.String(),
		Data:   map[string]interface{}{"action": action},
	})
}

// PublishTurnCompleted publishes a turn.completed event.
func (b *Broadcaster) PublishTurnCompleted(turnID uuid.UUID, fallback bool) {
	b.Publish(Event{
		Type:   EventTypeTurnCompleted,
		TurnID: turnID.String(),
		Data:   map[string]interface{}{"fallback": fallback},
	})
}

// PublishTurnFailed publishes a turn.failed event.
func (b *Broadcaster) PublishTurnFailed(turnID uuid.UUID) {
	b.Publish(Event{
		Type:   EventTypeTurnFailed,
		TurnID: turnID.String(),
	})
}

// PublishImageResolved publishes a turn.image_resolved event.
func (b *Broadcaster) PublishImageResolved(turnID uuid.UUID, status string) {
	b.Publish(Event{
		Type:   EventTypeImageResolved,
		TurnID: turnID.String(),
		Data:   map[string]interface{}{"status": status},
	})
}
