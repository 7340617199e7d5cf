package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tannerws/mistweaver/pkg/chat"
	"github.com/tannerws/mistweaver/pkg/story"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	DefaultGeminiTemperature = 0.7
)

// Wire types for the Gemini generateContent API.

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiImageConfig struct {
	ImageSize   string `json:"imageSize"`
	AspectRatio string `json:"aspectRatio"`
}

type geminiGenerationConfig struct {
	Temperature      *float64               `json:"temperature,omitempty"`
	ResponseMIMEType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
	ImageConfig      *geminiImageConfig     `json:"imageConfig,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GeminiService implements LLMService against the Gemini API.
type GeminiService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*GeminiService)(nil)

func NewGeminiService(apiKey string, modelName string, logger *slog.Logger) *GeminiService {
	return &GeminiService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   geminiBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// getTurnResponseSchema returns the structured-output schema enforcing
// the narrative response shape.
func (g *GeminiService) getTurnResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"narrative": map[string]interface{}{
				"type":        "STRING",
				"description": "The main story text segment.",
			},
			"options": map[string]interface{}{
				"type":        "ARRAY",
				"items":       map[string]interface{}{"type": "STRING"},
				"description": "Suggested actions for the user.",
			},
			"inventory_changes": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"add": map[string]interface{}{
						"type":  "ARRAY",
						"items": map[string]interface{}{"type": "STRING"},
					},
					"remove": map[string]interface{}{
						"type":  "ARRAY",
						"items": map[string]interface{}{"type": "STRING"},
					},
				},
			},
			"quest_update": map[string]interface{}{
				"type":        "STRING",
				"description": "The new quest status or objective. Null if unchanged.",
			},
			"visual_description": map[string]interface{}{
				"type":        "STRING",
				"description": "A standalone prompt for an image generator to visualize this scene.",
			},
		},
		"required": []string{"narrative", "options", "visual_description", "inventory_changes"},
	}
}

// GenerateTurn sends the conversation to the model with the fixed
// system prompt and response schema, and returns the raw response text.
func (g *GeminiService) GenerateTurn(ctx context.Context, messages []chat.Message) (string, error) {
	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	temperature := DefaultGeminiTemperature
	req := geminiRequest{
		Contents: contents,
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: story.SystemPrompt}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   g.getTurnResponseSchema(),
		},
	}

	resp, err := generateContent(ctx, g.httpClient, g.baseURL, g.apiKey, g.modelName, req)
	if err != nil {
		return "", err
	}

	// Collect text from the first candidate's parts.
	var text string
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.modelName)
	}

	return text, nil
}

// generateContent makes a generateContent request against the Gemini
// API and decodes the envelope.
func generateContent(ctx context.Context, client *http.Client, baseURL, apiKey, model string, geminiReq geminiRequest) (*geminiResponse, error) {
	reqBody, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", baseURL, model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", geminiResp.Error.Message)
	}

	return &geminiResp, nil
}
