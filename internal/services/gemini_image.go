package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

// SceneAspectRatio is the fixed cinematic aspect ratio requested for
// every scene illustration.
const SceneAspectRatio = "16:9"

// GeminiImageService implements ImageService against the Gemini API.
type GeminiImageService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ImageService = (*GeminiImageService)(nil)

func NewGeminiImageService(apiKey string, modelName string, logger *slog.Logger) *GeminiImageService {
	return &GeminiImageService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   geminiBaseURL,
		httpClient: &http.Client{
			// Image generation is slow at the higher tiers.
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// GenerateImage requests a scene illustration and returns the first
// inline image part of the response.
func (g *GeminiImageService) GenerateImage(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ImageConfig: &geminiImageConfig{
				ImageSize:   string(quality),
				AspectRatio: SceneAspectRatio,
			},
		},
	}

	resp, err := generateContent(ctx, g.httpClient, g.baseURL, g.apiKey, g.modelName, req)
	if err != nil {
		return nil, err
	}

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				return &story.SceneImage{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("no image data found in response from model %s", g.modelName)
}
