package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/internal/services"
	"github.com/tannerws/mistweaver/pkg/chat"
	"github.com/tannerws/mistweaver/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestEngine() (*engine.Engine, *services.MockLLMService, *services.MockImageService) {
	llm := services.NewMockLLMService()
	images := services.NewMockImageService()
	return engine.New(llm, images, testLogger()), llm, images
}

func TestActionHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           interface{}
		mockSetup      func(*services.MockLLMService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful action",
			method:         http.MethodPost,
			body:           chat.ActionRequest{Action: "look around"},
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			body:           nil,
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusMethodNotAllowed,
			expectedError:  "Method not allowed. Only POST is supported at /v1/action.",
		},
		{
			name:           "invalid JSON body",
			method:         http.MethodPost,
			body:           "{not json",
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body. Expected JSON with 'action' field.",
		},
		{
			name:           "empty action",
			method:         http.MethodPost,
			body:           chat.ActionRequest{Action: "   "},
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Action cannot be empty.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, llm, _ := newTestEngine()
			tt.mockSetup(llm)
			handler := NewActionHandler(eng, testLogger())

			var bodyBytes []byte
			switch b := tt.body.(type) {
			case string:
				bodyBytes = []byte(b)
			case nil:
			default:
				var err error
				bodyBytes, err = json.Marshal(b)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(tt.method, "/v1/action", bytes.NewReader(bodyBytes))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedError != "" {
				var errResp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedError, errResp.Error)
				return
			}

			var view SessionView
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
			require.Len(t, view.Turns, 2)
			assert.Equal(t, story.RoleUser, view.Turns[0].Role)
			assert.Equal(t, story.RoleNarrator, view.Turns[1].Role)
			assert.False(t, view.InFlight)

			eng.Wait()
		})
	}
}

func TestActionHandler_Conflict(t *testing.T) {
	eng, llm, _ := newTestEngine()
	release := make(chan struct{})
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		<-release
		return `{"narrative":"Done.","options":[],"inventory_changes":{},"visual_description":"A scene."}`, nil
	}
	handler := NewActionHandler(eng, testLogger())

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		body, _ := json.Marshal(chat.ActionRequest{Action: "slow action"})
		req := httptest.NewRequest(http.MethodPost, "/v1/action", bytes.NewReader(body))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	require.Eventually(t, eng.InFlight, time.Second, time.Millisecond)

	body, _ := json.Marshal(chat.ActionRequest{Action: "impatient action"})
	req := httptest.NewRequest(http.MethodPost, "/v1/action", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	<-firstDone
	eng.Wait()
}
