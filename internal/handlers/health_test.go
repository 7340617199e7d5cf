package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tannerws/mistweaver/internal/services"
)

type failingCache struct {
	services.MockCache
}

func (f *failingCache) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("cache disabled", func(t *testing.T) {
		handler := NewHealthHandler(nil, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "mistweaver", resp.Service)
		assert.Equal(t, "disabled", resp.Components["cache"])
	})

	t.Run("cache healthy", func(t *testing.T) {
		handler := NewHealthHandler(services.NewMockCache(), testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Components["cache"])
	})

	t.Run("cache unreachable", func(t *testing.T) {
		handler := NewHealthHandler(&failingCache{}, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["cache"])
	})
}
