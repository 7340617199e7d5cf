package chat

import (
	"fmt"
	"strings"
)

const (
	// RoleUser marks a message authored by the player.
	RoleUser = "user"

	// RoleNarrator marks a message authored by the narrator. The value
	// matches the Gemini API's "model" role so history can be sent on
	// the wire without remapping.
	RoleNarrator = "model"
)

// Message is a single role-tagged text message in the conversation sent
// to the text-generation backend. Image data is never carried here;
// history is re-expressed as plain text only.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ActionRequest is a player action submitted to the session.
type ActionRequest struct {
	Action string `json:"action"`
}

func (r *ActionRequest) Validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}
