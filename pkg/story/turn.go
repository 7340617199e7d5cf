package story

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tannerws/mistweaver/pkg/chat"
)

// Role is the author of a turn.
type Role string

const (
	RoleUser     Role = "user"
	RoleNarrator Role = "narrator"
)

// ImageStatus tracks the lifecycle of a narrator turn's illustration.
// Only narrator turns ever leave ImageNone. A pending turn is patched
// exactly once, to ready or unavailable, and never reverts.
type ImageStatus string

const (
	ImageNone        ImageStatus = "none"
	ImagePending     ImageStatus = "pending"
	ImageReady       ImageStatus = "ready"
	ImageUnavailable ImageStatus = "unavailable"
)

// SceneImage is a displayable scene illustration: either inline bytes
// (MIMEType + base64 Data) or an external URL for the placeholder
// stand-in used when generation fails.
type SceneImage struct {
	MIMEType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Ref returns a self-contained reference a client can display directly:
// a data URI for inline images, or the URL as-is.
func (img *SceneImage) Ref() string {
	if img == nil {
		return ""
	}
	if img.URL != "" {
		return img.URL
	}
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, img.Data)
}

// Turn is one entry in the session's conversation history. Turns are
// immutable after append, except for the single keyed image patch on
// narrator turns.
type Turn struct {
	ID          uuid.UUID   `json:"id"`
	Role        Role        `json:"role"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"created_at"`
	Options     []string    `json:"options,omitempty"`
	Image       *SceneImage `json:"image,omitempty"`
	ImageStatus ImageStatus `json:"image_status"`
}

// NewUserTurn creates a turn for a submitted player action.
func NewUserTurn(text string) Turn {
	return Turn{
		ID:          uuid.New(),
		Role:        RoleUser,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
		ImageStatus: ImageNone,
	}
}

// NewNarratorTurn creates a turn for a narrative response. The image
// status starts pending when the response carried a visual description.
func NewNarratorTurn(text string, options []string, hasVisual bool) Turn {
	status := ImageNone
	if hasVisual {
		status = ImagePending
	}
	return Turn{
		ID:          uuid.New(),
		Role:        RoleNarrator,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
		Options:     options,
		ImageStatus: status,
	}
}

// ChatMessage re-expresses the turn as a wire-level message for the
// text backend. Image data is deliberately dropped.
func (t Turn) ChatMessage() chat.Message {
	role := chat.RoleUser
	if t.Role == RoleNarrator {
		role = chat.RoleNarrator
	}
	return chat.Message{Role: role, Content: t.Text}
}
