package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testServiceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestRedis(t *testing.T) *RedisService {
	t.Helper()

	mr := miniredis.RunT(t)
	service := NewRedisService(mr.Addr(), testServiceLogger())
	t.Cleanup(func() {
		if err := service.Close(); err != nil {
			t.Errorf("Failed to close Redis service: %v", err)
		}
	})
	return service
}

func TestRedisService_Basic(t *testing.T) {
	service := newTestRedis(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := service.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	key := "scene:test123"
	value := `{"mime_type":"image/png","data":"Zm9v"}`

	if err := service.Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	retrieved, err := service.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if retrieved != value {
		t.Errorf("Expected %q, got %q", value, retrieved)
	}

	if err := service.Del(ctx, key); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}

	retrieved, err = service.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if retrieved != "" {
		t.Errorf("Expected empty value after delete, got %q", retrieved)
	}
}

func TestRedisService_GetMissingKey(t *testing.T) {
	service := newTestRedis(t)

	ctx := context.Background()
	value, err := service.Get(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("Get on missing key should not error: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty string for missing key, got %q", value)
	}
}
