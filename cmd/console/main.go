package main

import (
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tannerws/mistweaver/internal/config"
	"github.com/tannerws/mistweaver/internal/engine"
	"github.com/tannerws/mistweaver/internal/services"
	"github.com/tannerws/mistweaver/internal/services/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	if cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is required. Set it and try again.")
		os.Exit(1)
	}

	// The alt screen owns the terminal, so logs go to a file when
	// CONSOLE_LOG is set and are discarded otherwise.
	logWriter := io.Discard
	if path := os.Getenv("CONSOLE_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = f.Close() // Ignore error in defer
		}()
		logWriter = f
	}
	log := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: cfg.LogLevel}))

	llmService := services.NewGeminiService(cfg.GeminiAPIKey, cfg.TextModel, log)
	imageService := services.NewGeminiImageService(cfg.GeminiAPIKey, cfg.ImageModel, log)
	broadcaster := events.NewBroadcaster(log)

	eng := engine.New(llmService, imageService, log).WithBroadcaster(broadcaster)
	eng.SetDefaultQuality(cfg.ImageQuality)

	if cfg.RedisURL != "" {
		cache := services.NewRedisService(cfg.RedisURL, log)
		eng.WithCache(cache, cfg.ImageCacheTTL)
		defer func() {
			_ = cache.Close() // Ignore error in defer
		}()
	}

	p := tea.NewProgram(NewConsoleUI(cfg, eng, broadcaster),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	eng.Wait()
}
