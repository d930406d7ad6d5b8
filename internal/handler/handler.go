package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Camillus83/ImageUploadAPI/internal/config"
	"github.com/Camillus83/ImageUploadAPI/internal/logger"
	"github.com/Camillus83/ImageUploadAPI/internal/service"
)

// HealthChecker reports backing-store availability for the readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth   service.AuthService
	images service.ImageService
	expiry service.ExpiryService
	health HealthChecker
	cfg    *config.Config
}

func New(auth service.AuthService, images service.ImageService, expiry service.ExpiryService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{auth, images, expiry, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
