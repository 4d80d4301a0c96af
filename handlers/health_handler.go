package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Providers []providers.Kind  `json:"providers,omitempty"`
}

// ProviderLister reports which providers have credentials
type ProviderLister interface {
	ConfiguredProviders() []providers.Kind
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	providers ProviderLister
	logger    *zap.Logger
	now       func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(providers ProviderLister, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		providers: providers,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleHealth handles GET /healthz
// Basic liveness check, always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Ready once at least one provider has an API key
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	var configured []providers.Kind
	if h.providers != nil {
		configured = h.providers.ConfiguredProviders()
	}

	response := HealthResponse{
		Status:    "ready",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"providers": "configured"},
		Providers: configured,
	}

	if len(configured) == 0 {
		h.logger.Warn("readiness check failed: no provider credentials configured")
		response.Status = "not_ready"
		response.Checks["providers"] = "none_configured"

		if err := utils.WriteServiceUnavailable(w, response); err != nil {
			h.logger.Error("failed to write readiness response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
