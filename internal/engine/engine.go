package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tannerws/mistweaver/internal/services"
	"github.com/tannerws/mistweaver/internal/services/events"
	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

var (
	// ErrEmptyAction is returned when a submitted action is empty or
	// whitespace-only. The submission is a no-op.
	ErrEmptyAction = errors.New("action is empty")

	// ErrTurnInFlight is returned when a narrative turn is already in
	// flight. The submission is a no-op.
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// Engine orchestrates one adventure session: it sequences each player
// action into a narrative request, applies the returned game-state
// delta, and dispatches the scene-image request as a detached
// continuation that patches history by turn ID.
//
// At most one narrative request is in flight at a time, gated by the
// in-flight flag. Image continuations are not gated and may overlap
// arbitrarily across turns.
type Engine struct {
	llm         services.LLMService
	images      services.ImageService
	cache       services.Cache
	broadcaster *events.Broadcaster
	logger      *slog.Logger

	history *story.History

	mu          sync.Mutex // guards gs, inFlight, suggestions
	gs          *state.GameState
	inFlight    bool
	suggestions []string

	cacheTTL time.Duration
	imageWG  sync.WaitGroup
}

func New(llm services.LLMService, images services.ImageService, logger *slog.Logger) *Engine {
	return &Engine{
		llm:     llm,
		images:  images,
		logger:  logger,
		history: story.NewHistory(),
		gs:      state.NewGameState(),
	}
}

// WithCache enables the scene-image cache.
func (e *Engine) WithCache(cache services.Cache, ttl time.Duration) *Engine {
	e.cache = cache
	e.cacheTTL = ttl
	return e
}

// WithBroadcaster enables session event publishing.
func (e *Engine) WithBroadcaster(b *events.Broadcaster) *Engine {
	e.broadcaster = b
	return e
}

// Submit runs one full turn for the given player action. It returns
// ErrEmptyAction or ErrTurnInFlight when the submission is rejected;
// both leave history and state untouched. A narrative backend failure
// is not an error to the caller: it degrades to a fixed in-character
// narrator turn and the session stays usable.
//
// Submit returns once the narrative stage has settled. The scene image
// is fetched by a background continuation that patches the narrator
// turn when it completes; Submit does not wait for it.
func (e *Engine) Submit(ctx context.Context, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrEmptyAction
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrTurnInFlight
	}
	e.inFlight = true
	e.suggestions = nil
	e.mu.Unlock()

	userTurn := story.NewUserTurn(action)
	e.history.Append(userTurn)
	if e.broadcaster != nil {
		e.broadcaster.PublishTurnStarted(userTurn.ID, action)
	}

	result, err := e.requestNarrative(ctx)
	if err != nil {
		e.logger.Error("Narrative request failed", "error", err, "action", action)
		errTurn := story.NewNarratorTurn(story.NarrativeError, nil, false)
		e.history.Append(errTurn)
		e.setIdle()
		if e.broadcaster != nil {
			e.broadcaster.PublishTurnFailed(errTurn.ID)
		}
		return nil
	}

	resp := result.Response
	if result.Fallback {
		e.logger.Warn("Narrative payload was malformed, using fallback response")
	}

	e.mu.Lock()
	e.gs.ApplyDelta(resp.Delta())
	quality := e.gs.ImageQuality
	e.suggestions = append([]string(nil), resp.Options...)
	e.mu.Unlock()

	turn := story.NewNarratorTurn(resp.Narrative, resp.Options, resp.VisualDescription != "")
	e.history.Append(turn)
	if e.broadcaster != nil {
		e.broadcaster.PublishTurnCompleted(turn.ID, result.Fallback)
	}

	if turn.ImageStatus == story.ImagePending {
		e.imageWG.Add(1)
		go e.resolveSceneImage(turn.ID, resp.VisualDescription, quality)
	}

	e.setIdle()
	return nil
}

func (e *Engine) setIdle() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}

// Wait blocks until all outstanding image continuations have settled.
// Used on shutdown and by tests; the turn loop never calls it.
func (e *Engine) Wait() {
	e.imageWG.Wait()
}

// InFlight reports whether a narrative turn is currently in flight.
func (e *Engine) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// Turns returns a snapshot of the session history.
func (e *Engine) Turns() []story.Turn {
	return e.history.Turns()
}

// GameState returns a snapshot of the current game state.
func (e *Engine) GameState() state.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gs.Copy()
}

// Suggestions returns the current suggested next actions.
func (e *Engine) Suggestions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.suggestions...)
}

// SetImageQuality changes the resolution tier for subsequent image
// requests. Past images are never regenerated.
func (e *Engine) SetImageQuality(q state.ImageQuality) error {
	if !q.IsValid() {
		return fmt.Errorf("unsupported image quality %q (supported: %v)", q, state.Qualities())
	}
	e.mu.Lock()
	e.gs.ImageQuality = q
	e.mu.Unlock()
	return nil
}

// SetDefaultQuality seeds the starting quality tier from configuration.
func (e *Engine) SetDefaultQuality(q state.ImageQuality) {
	if q.IsValid() {
		e.mu.Lock()
		e.gs.ImageQuality = q
		e.mu.Unlock()
	}
}
