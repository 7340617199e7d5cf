package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

// placeholderURLFormat is the stand-in scene image used when generation
// fails. Image generation is best-effort; a failed image is never a
// reason to fail a turn.
const placeholderURLFormat = "https://picsum.photos/seed/%s/800/450?grayscale&blur=2"

// resolveSceneImage is the detached continuation for one narrator turn.
// It runs without the orchestrator waiting on it and performs a single
// keyed patch on history when the image settles. sceneImage absorbs
// backend failures into a placeholder, so in practice the patch is
// always ready-with-image; a nil result is patched as unavailable.
func (e *Engine) resolveSceneImage(turnID uuid.UUID, description string, quality state.ImageQuality) {
	defer e.imageWG.Done()

	img := e.sceneImage(context.Background(), description, quality)
	status := story.ImageReady
	if img == nil {
		status = story.ImageUnavailable
	}

	if !e.history.ResolveImage(turnID, img, status) {
		e.logger.Warn("Image patch did not apply", "turn_id", turnID.String(), "status", status)
		return
	}
	e.logger.Debug("Scene image resolved", "turn_id", turnID.String(), "status", status)
	if e.broadcaster != nil {
		e.broadcaster.PublishImageResolved(turnID, string(status))
	}
}

// sceneImage fetches the scene illustration, consulting the optional
// cache first. Every failure path returns the placeholder stand-in.
func (e *Engine) sceneImage(ctx context.Context, description string, quality state.ImageQuality) *story.SceneImage {
	key := sceneCacheKey(description, quality)

	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		if err == nil && cached != "" {
			var img story.SceneImage
			if err := json.Unmarshal([]byte(cached), &img); err == nil {
				e.logger.Debug("Scene image cache hit", "key", key)
				return &img
			}
			// A corrupt entry is dropped and regenerated.
			_ = e.cache.Del(ctx, key)
		}
	}

	img, err := e.images.GenerateImage(ctx, description, quality)
	if err != nil || img == nil {
		e.logger.Warn("Image generation failed, using placeholder", "error", err, "quality", quality)
		return placeholderImage()
	}

	if e.cache != nil {
		if data, err := json.Marshal(img); err == nil {
			if err := e.cache.Set(ctx, key, string(data), e.cacheTTL); err != nil {
				e.logger.Warn("Failed to cache scene image", "key", key, "error", err)
			}
		}
	}

	return img
}

func sceneCacheKey(description string, quality state.ImageQuality) string {
	sum := sha256.Sum256([]byte(string(quality) + ":" + description))
	return "scene:" + hex.EncodeToString(sum[:16])
}

func placeholderImage() *story.SceneImage {
	seed := uuid.NewString()[:8]
	return &story.SceneImage{URL: fmt.Sprintf(placeholderURLFormat, seed)}
}
