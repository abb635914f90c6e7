package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	natsclient "github.com/capitalize-ai/appbuilder/internal/nats"
	"github.com/capitalize-ai/appbuilder/internal/store"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store      store.Store
	natsClient *natsclient.Client
	logger     *logger.Logger
}

// NewHealthHandler creates a new health handler. natsClient is nil when events are disabled.
func NewHealthHandler(s store.Store, natsClient *natsclient.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:      s,
		natsClient: natsClient,
		logger:     log,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
