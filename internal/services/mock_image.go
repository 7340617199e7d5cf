package services

import (
	"context"
	"sync"

	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

// MockImageService is a mock implementation of ImageService for testing.
type MockImageService struct {
	GenerateImageFunc func(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error)

	// Track calls for testing
	GenerateImageCalls []GenerateImageCall

	mu sync.Mutex // protects all fields above
}

type GenerateImageCall struct {
	Prompt  string
	Quality state.ImageQuality
}

var _ ImageService = (*MockImageService)(nil)

func NewMockImageService() *MockImageService {
	return &MockImageService{
		GenerateImageCalls: make([]GenerateImageCall, 0),
	}
}

func (m *MockImageService) GenerateImage(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error) {
	m.mu.Lock()
	m.GenerateImageCalls = append(m.GenerateImageCalls, GenerateImageCall{Prompt: prompt, Quality: quality})
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, quality)
	}

	// Default behavior - a small inline image
	return &story.SceneImage{MIMEType: "image/png", Data: "bW9jaw=="}, nil
}

// Calls returns a snapshot of recorded calls.
func (m *MockImageService) Calls() []GenerateImageCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateImageCall, len(m.GenerateImageCalls))
	copy(out, m.GenerateImageCalls)
	return out
}
