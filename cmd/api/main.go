package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tannerws/mistweaver/internal/config"
	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/internal/handlers"
	"github.com/tannerws/mistweaver/internal/logger"
	"github.com/tannerws/mistweaver/internal/middleware"
	"github.com/tannerws/mistweaver/internal/services"
	"github.com/tannerws/mistweaver/internal/services/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Mistweaver API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"text_model", cfg.TextModel,
		"image_model", cfg.ImageModel)

	if cfg.GeminiAPIKey == "" {
		log.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	llmService := services.NewGeminiService(cfg.GeminiAPIKey, cfg.TextModel, log)
	imageService := services.NewGeminiImageService(cfg.GeminiAPIKey, cfg.ImageModel, log)

	broadcaster := events.NewBroadcaster(log)

	eng := engine.New(llmService, imageService, log).WithBroadcaster(broadcaster)
	eng.SetDefaultQuality(cfg.ImageQuality)

	var cache services.Cache
	if cfg.RedisURL != "" {
		redisService := services.NewRedisService(cfg.RedisURL, log)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisService.Ping(pingCtx); err != nil {
			pingCancel()
			log.Error("Failed to connect to scene-image cache", "error", err)
			os.Exit(1)
		}
		pingCancel()
		cache = redisService
		eng.WithCache(cache, cfg.ImageCacheTTL)
		log.Info("Scene-image cache enabled", "ttl", cfg.ImageCacheTTL)
	} else {
		log.Info("Scene-image cache disabled")
	}

	// Open the adventure before accepting requests, so the first
	// GET /v1/session already has a narrated scene.
	openCtx, openCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := eng.Submit(openCtx, cfg.OpeningAction); err != nil {
		openCancel()
		log.Error("Failed to open the adventure", "error", err)
		os.Exit(1)
	}
	openCancel()
	log.Info("Adventure opened", "action", cfg.OpeningAction)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(cache, log))
	mux.Handle("/v1/session", handlers.NewSessionHandler(eng, log))
	mux.Handle("/v1/action", handlers.NewActionHandler(eng, log))
	mux.Handle("/v1/settings", handlers.NewSettingsHandler(eng, log))
	mux.Handle("/v1/events", handlers.NewEventsHandler(broadcaster, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /v1/events streams for the life of the client.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight image continuations land before closing the cache.
	eng.Wait()

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Error closing cache connection", "error", err)
		}
	}

	log.Info("Server exited")
}
