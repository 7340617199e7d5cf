package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/tannerws/mistweaver/pkg/story"
)

// requestNarrative sends the full session history, re-expressed as
// role-tagged text messages with the just-submitted action last, to the
// text backend. An empty payload is treated identically to a transport
// error. Malformed JSON is not an error: it comes back as a fallback
// DecodeResult.
func (e *Engine) requestNarrative(ctx context.Context) (story.DecodeResult, error) {
	messages := e.history.ChatMessages()

	raw, err := e.llm.GenerateTurn(ctx, messages)
	if err != nil {
		return story.DecodeResult{}, fmt.Errorf("narrative request failed: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return story.DecodeResult{}, fmt.Errorf("narrative backend returned an empty payload")
	}

	return story.DecodeTurnResponse(raw), nil
}
