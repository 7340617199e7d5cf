package services

import (
	"context"

	"github.com/tannerws/mistweaver/pkg/chat"
	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

// LLMService defines the interface for the text-generation backend.
type LLMService interface {
	// GenerateTurn sends the role-tagged conversation plus the fixed
	// system prompt and structured-output schema, and returns the raw
	// response text. Decoding is the caller's concern.
	GenerateTurn(ctx context.Context, messages []chat.Message) (string, error)
}

// ImageService defines the interface for the image-generation backend.
type ImageService interface {
	// GenerateImage requests a scene illustration at the given quality
	// tier. It returns an error on hard failure or when the response
	// carries no image part; absorbing that into a placeholder is the
	// caller's policy, not the client's.
	GenerateImage(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error)
}
