package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tannerws/mistweaver/pkg/state"
	"github.com/tannerws/mistweaver/pkg/story"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Generative backend
	GeminiAPIKey string
	TextModel    string
	ImageModel   string

	// Scene-image cache. Empty RedisURL disables caching.
	RedisURL      string
	ImageCacheTTL time.Duration

	// Session defaults
	ImageQuality  state.ImageQuality
	OpeningAction string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		TextModel:     getEnv("TEXT_MODEL", "gemini-flash-lite-latest"),
		ImageModel:    getEnv("IMAGE_MODEL", "gemini-3-pro-image-preview"),
		RedisURL:      getEnv("REDIS_URL", ""),
		ImageQuality:  state.ImageQuality(getEnv("IMAGE_QUALITY", string(state.Quality1K))),
		OpeningAction: getEnv("OPENING_ACTION", story.OpeningAction),
	}

	ttlHours, err := strconv.Atoi(getEnv("IMAGE_CACHE_TTL_HOURS", "24"))
	if err != nil || ttlHours < 0 {
		return nil, fmt.Errorf("invalid IMAGE_CACHE_TTL_HOURS: %q", getEnv("IMAGE_CACHE_TTL_HOURS", "24"))
	}
	cfg.ImageCacheTTL = time.Duration(ttlHours) * time.Hour

	if !cfg.ImageQuality.IsValid() {
		return nil, fmt.Errorf("invalid IMAGE_QUALITY: %q (supported: %v)", cfg.ImageQuality, state.Qualities())
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
