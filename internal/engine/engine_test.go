package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tannerws/mistweaver/internal/services"
	"github.com/tannerws/mistweaver/pkg/chat"
	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func turnPayload(narrative string, options []string, add, remove []string, quest, visual string) string {
	resp := story.TurnResponse{
		Narrative:         narrative,
		Options:           options,
		InventoryChanges:  state.Delta{Add: add, Remove: remove},
		QuestUpdate:       quest,
		VisualDescription: visual,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func TestEngine_Submit_FullTurn(t *testing.T) {
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return turnPayload(
			"You find a torch in the rubble.",
			[]string{"Light the torch", "Keep searching"},
			[]string{"torch"}, nil,
			"Escape the ruin.",
			"A ruined hall, fantasy digital painting.",
		), nil
	}
	images := services.NewMockImageService()

	eng := New(llm, images, testLogger())
	require.NoError(t, eng.Submit(context.Background(), "search the rubble"))
	eng.Wait()

	turns := eng.Turns()
	require.Len(t, turns, 2)

	assert.Equal(t, story.RoleUser, turns[0].Role)
	assert.Equal(t, "search the rubble", turns[0].Text)
	assert.Equal(t, story.ImageNone, turns[0].ImageStatus)

	assert.Equal(t, story.RoleNarrator, turns[1].Role)
	assert.Equal(t, "You find a torch in the rubble.", turns[1].Text)
	assert.Equal(t, []string{"Light the torch", "Keep searching"}, turns[1].Options)
	assert.Equal(t, story.ImageReady, turns[1].ImageStatus)
	require.NotNil(t, turns[1].Image)
	assert.Equal(t, "image/png", turns[1].Image.MIMEType)

	gs := eng.GameState()
	require.Len(t, gs.Inventory, 1)
	assert.Equal(t, "torch", gs.Inventory[0].Name)
	assert.Equal(t, "Escape the ruin.", gs.CurrentQuest)

	assert.Equal(t, []string{"Light the torch", "Keep searching"}, eng.Suggestions())
	assert.False(t, eng.InFlight())

	// The image request used the visual description and current tier.
	calls := images.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "A ruined hall, fantasy digital painting.", calls[0].Prompt)
	assert.Equal(t, state.Quality1K, calls[0].Quality)
}

func TestEngine_Submit_EmptyAction(t *testing.T) {
	eng := New(services.NewMockLLMService(), services.NewMockImageService(), testLogger())

	for _, action := range []string{"", "   ", "\n\t"} {
		err := eng.Submit(context.Background(), action)
		assert.ErrorIs(t, err, ErrEmptyAction)
	}

	assert.Equal(t, 0, len(eng.Turns()))
	assert.False(t, eng.InFlight())
}

func TestEngine_Submit_RejectsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		<-release
		return turnPayload("Done.", nil, nil, nil, "", "A scene."), nil
	}

	eng := New(llm, services.NewMockImageService(), testLogger())

	done := make(chan error, 1)
	go func() {
		done <- eng.Submit(context.Background(), "first action")
	}()

	// Wait for the first submission to take the in-flight flag.
	require.Eventually(t, eng.InFlight, time.Second, time.Millisecond)

	historyLen := len(eng.Turns())
	err := eng.Submit(context.Background(), "second action")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Equal(t, historyLen, len(eng.Turns()), "rejected submission must not touch history")

	close(release)
	require.NoError(t, <-done)
	eng.Wait()

	assert.False(t, eng.InFlight())
	require.Len(t, llm.Calls(), 1, "only the first action reaches the backend")
}

func TestEngine_Submit_NarrativeFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, messages []chat.Message) (string, error)
	}{
		{
			name: "backend error",
			fn: func(ctx context.Context, messages []chat.Message) (string, error) {
				return "", errors.New("connection refused")
			},
		},
		{
			name: "empty payload",
			fn: func(ctx context.Context, messages []chat.Message) (string, error) {
				return "   ", nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := services.NewMockLLMService()
			llm.GenerateTurnFunc = tt.fn
			images := services.NewMockImageService()

			eng := New(llm, images, testLogger())
			require.NoError(t, eng.Submit(context.Background(), "open the door"))
			eng.Wait()

			turns := eng.Turns()
			require.Len(t, turns, 2)
			assert.Equal(t, story.RoleNarrator, turns[1].Role)
			assert.Equal(t, story.NarrativeError, turns[1].Text)
			assert.Empty(t, turns[1].Options)
			assert.Equal(t, story.ImageNone, turns[1].ImageStatus)

			assert.False(t, eng.InFlight(), "in-flight flag must clear on failure")
			assert.Empty(t, images.Calls(), "no image request on a failed turn")

			// The loop stays usable for the next action.
			llm.GenerateTurnFunc = nil
			require.NoError(t, eng.Submit(context.Background(), "try again"))
			eng.Wait()
			assert.Equal(t, 4, len(eng.Turns()))
		})
	}
}

func TestEngine_Submit_MalformedPayloadFallsBack(t *testing.T) {
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "The wizard laughs at your plan.", nil
	}

	eng := New(llm, services.NewMockImageService(), testLogger())
	require.NoError(t, eng.Submit(context.Background(), "bargain with the wizard"))
	eng.Wait()

	turns := eng.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "The wizard laughs at your plan.", turns[1].Text)
	assert.Equal(t, []string{story.FallbackOption}, turns[1].Options)
	// The fallback carries a generic visual description, so the image
	// stage still runs.
	assert.Equal(t, story.ImageReady, turns[1].ImageStatus)
	assert.False(t, eng.InFlight())
}

func TestEngine_Submit_QuestPreservedWhenOmitted(t *testing.T) {
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return turnPayload("Nothing changes.", []string{"Wait"}, nil, nil, "", "A quiet glade."), nil
	}

	eng := New(llm, services.NewMockImageService(), testLogger())
	require.NoError(t, eng.Submit(context.Background(), "wait"))
	eng.Wait()

	assert.Equal(t, state.DefaultQuest, eng.GameState().CurrentQuest)
}

func TestEngine_Submit_ImageFailureUsesPlaceholder(t *testing.T) {
	llm := services.NewMockLLMService()
	images := services.NewMockImageService()
	images.GenerateImageFunc = func(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error) {
		return nil, errors.New("image backend unavailable")
	}

	eng := New(llm, images, testLogger())
	require.NoError(t, eng.Submit(context.Background(), "look around"))
	eng.Wait()

	turns := eng.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, story.ImageReady, turns[1].ImageStatus)
	require.NotNil(t, turns[1].Image)
	assert.True(t, strings.HasPrefix(turns[1].Image.URL, "https://picsum.photos/seed/"),
		"expected placeholder URL, got %q", turns[1].Image.URL)

	// A failed image never blocks the next submission.
	require.NoError(t, eng.Submit(context.Background(), "continue on"))
	eng.Wait()
	assert.Equal(t, 4, len(eng.Turns()))
}

func TestEngine_Submit_HistorySentWithoutImages(t *testing.T) {
	llm := services.NewMockLLMService()

	eng := New(llm, services.NewMockImageService(), testLogger())
	require.NoError(t, eng.Submit(context.Background(), "first"))
	eng.Wait()
	require.NoError(t, eng.Submit(context.Background(), "second"))
	eng.Wait()

	calls := llm.Calls()
	require.Len(t, calls, 2)

	// Second request: user, narrator, user. Text only, with the new
	// action last.
	second := calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, chat.RoleUser, second[0].Role)
	assert.Equal(t, "first", second[0].Content)
	assert.Equal(t, chat.RoleNarrator, second[1].Role)
	assert.Equal(t, chat.RoleUser, second[2].Role)
	assert.Equal(t, "second", second[2].Content)
}

func TestEngine_SetImageQuality(t *testing.T) {
	eng := New(services.NewMockLLMService(), services.NewMockImageService(), testLogger())

	require.NoError(t, eng.SetImageQuality(state.Quality4K))
	assert.Equal(t, state.Quality4K, eng.GameState().ImageQuality)

	err := eng.SetImageQuality("8K")
	require.Error(t, err)
	assert.Equal(t, state.Quality4K, eng.GameState().ImageQuality)

	// The new tier applies to the next image request.
	images := services.NewMockImageService()
	eng = New(services.NewMockLLMService(), images, testLogger())
	require.NoError(t, eng.SetImageQuality(state.Quality2K))
	require.NoError(t, eng.Submit(context.Background(), "look"))
	eng.Wait()

	calls := images.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, state.Quality2K, calls[0].Quality)
}

func TestEngine_ClearsSuggestionsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		<-release
		return turnPayload("Text.", []string{"New option"}, nil, nil, "", "Scene."), nil
	}

	eng := New(llm, services.NewMockImageService(), testLogger())

	done := make(chan error, 1)
	go func() { done <- eng.Submit(context.Background(), "go") }()
	require.Eventually(t, eng.InFlight, time.Second, time.Millisecond)
	assert.Empty(t, eng.Suggestions(), "suggestions clear while a turn is in flight")

	close(release)
	require.NoError(t, <-done)
	eng.Wait()
	assert.Equal(t, []string{"New option"}, eng.Suggestions())
}

func TestEngine_SceneImageCache(t *testing.T) {
	cache := services.NewMockCache()
	images := services.NewMockImageService()
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return turnPayload("Same place.", nil, nil, nil, "", "The same misty valley."), nil
	}

	eng := New(llm, images, testLogger()).WithCache(cache, time.Hour)

	require.NoError(t, eng.Submit(context.Background(), "look at the valley"))
	eng.Wait()
	require.NoError(t, eng.Submit(context.Background(), "look again"))
	eng.Wait()

	assert.Len(t, images.Calls(), 1, "second identical scene should be served from cache")

	turns := eng.Turns()
	require.Len(t, turns, 4)
	for _, i := range []int{1, 3} {
		assert.Equal(t, story.ImageReady, turns[i].ImageStatus)
		require.NotNil(t, turns[i].Image)
		assert.Equal(t, "bW9jaw==", turns[i].Image.Data)
	}
}

func TestEngine_OverlappingImageContinuations(t *testing.T) {
	// Hold every image request until all turns have completed, then
	// release them together; each patch must land on its own turn.
	release := make(chan struct{})
	images := services.NewMockImageService()
	images.GenerateImageFunc = func(ctx context.Context, prompt string, quality state.ImageQuality) (*story.SceneImage, error) {
		<-release
		return &story.SceneImage{MIMEType: "image/png", Data: prompt}, nil
	}

	turnCount := 0
	llm := services.NewMockLLMService()
	llm.GenerateTurnFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		turnCount++
		return turnPayload(fmt.Sprintf("Scene %d.", turnCount), nil, nil, nil, "",
			fmt.Sprintf("visual-%d", turnCount)), nil
	}

	eng := New(llm, images, testLogger())
	for i := 0; i < 3; i++ {
		require.NoError(t, eng.Submit(context.Background(), fmt.Sprintf("action %d", i)))
	}
	close(release)
	eng.Wait()

	turns := eng.Turns()
	require.Len(t, turns, 6)
	for i := 0; i < 3; i++ {
		turn := turns[i*2+1]
		require.Equal(t, story.ImageReady, turn.ImageStatus)
		require.NotNil(t, turn.Image)
		assert.Equal(t, fmt.Sprintf("visual-%d", i+1), turn.Image.Data)
	}
}
