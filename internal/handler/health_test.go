package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	t.Run("always returns 200 OK", func(t *testing.T) {
		// Arrange
		handler := newTestHandler()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Health(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})
}

func TestReady(t *testing.T) {
	t.Run("returns 200 OK when database is available", func(t *testing.T) {
		// Arrange
		handler := newTestHandler()
		handler.health = &MockHealthChecker{
			PingFunc: func(ctx context.Context) error {
				return nil // Database is healthy
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Ready(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("returns 503 when database is unavailable", func(t *testing.T) {
		// Arrange
		handler := newTestHandler()
		handler.health = &MockHealthChecker{
			PingFunc: func(ctx context.Context) error {
				return errors.New("connection refused")
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Ready(rr, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "database unavailable", rr.Body.String())
	})
}
