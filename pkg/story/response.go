package story

import (
	"encoding/json"
	"strings"

	"github.com/tannerws/mistweaver/pkg/state"
)

const (
	// FallbackOption is the single suggested action offered when a
	// narrative payload could not be decoded.
	FallbackOption = "Continue"

	// FallbackVisual stands in for a missing visual description on the
	// fallback path.
	FallbackVisual = "A mysterious scene in a fantasy world."

	// MaxOptions is the most suggested actions a response may carry.
	MaxOptions = 4
)

// TurnResponse is the structured payload decoded from the narrative
// backend. Narrative and VisualDescription are always present in a
// well-formed response; everything else is optional.
type TurnResponse struct {
	Narrative         string      `json:"narrative"`
	Options           []string    `json:"options"`
	InventoryChanges  state.Delta `json:"inventory_changes"`
	QuestUpdate       string      `json:"quest_update,omitempty"`
	VisualDescription string      `json:"visual_description"`
}

// Delta returns the full game-state delta carried by the response,
// folding the quest update in alongside the inventory changes.
func (r *TurnResponse) Delta() state.Delta {
	d := r.InventoryChanges
	d.QuestUpdate = r.QuestUpdate
	return d
}

// DecodeResult is the outcome of decoding a raw narrative payload.
// Decoding never fails: a malformed payload produces a fallback
// response with Fallback set, so the degraded path is a first-class
// branch rather than an error.
type DecodeResult struct {
	Response TurnResponse
	Fallback bool
}

// DecodeTurnResponse strictly decodes raw against the declared response
// shape. On any decode failure, or when the required fields are absent,
// it synthesizes a fallback whose narrative is the raw text itself.
// Schema enforcement upstream is best-effort, not a guarantee; the turn
// loop must never break on malformed output.
func DecodeTurnResponse(raw string) DecodeResult {
	text := trimCodeFence(raw)

	var resp TurnResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil || resp.Narrative == "" || resp.VisualDescription == "" {
		return DecodeResult{
			Response: TurnResponse{
				Narrative:         raw,
				Options:           []string{FallbackOption},
				VisualDescription: FallbackVisual,
			},
			Fallback: true,
		}
	}

	if len(resp.Options) > MaxOptions {
		resp.Options = resp.Options[:MaxOptions]
	}
	return DecodeResult{Response: resp}
}

// trimCodeFence strips a surrounding markdown code fence. Models
// sometimes wrap JSON output in one despite instructions not to.
func trimCodeFence(s string) string {
	text := strings.TrimSpace(s)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
