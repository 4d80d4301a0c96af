package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/middleware"
	"github.com/upb/llm-intent-router/services/inference"
	"github.com/upb/llm-intent-router/services/routing"
	"github.com/upb/llm-intent-router/utils"
)

// RouteRequest is the body of POST /api/v1/route. Omitted fields take the
// same defaults as a generate item.
type RouteRequest struct {
	Operation  inference.Operation `json:"operation,omitempty" validate:"omitempty,oneof=generate analyze"`
	Intent     routing.Intent      `json:"intent,omitempty"`
	Complexity routing.Complexity  `json:"complexity,omitempty" validate:"omitempty,oneof=low medium high"`
	Language   string              `json:"language,omitempty"`
}

// RouteResponse is the dry-run routing decision
type RouteResponse struct {
	Descriptor routing.RequestDescriptor `json:"descriptor"`
	Selection  routing.ModelSelection    `json:"selection"`
	Alternates []routing.ModelSelection  `json:"alternates"`
}

// RoutingTableResponse exposes the active policy
type RoutingTableResponse struct {
	Baseline  map[routing.Intent]routing.ModelSelection   `json:"baseline"`
	Default   routing.ModelSelection                      `json:"default"`
	Fallbacks map[routing.Intent][]routing.ModelSelection `json:"fallbacks"`
}

// RoutingTable is the read side of the model router
type RoutingTable interface {
	inference.Router
	Baseline() map[routing.Intent]routing.ModelSelection
	Fallbacks() map[routing.Intent][]routing.ModelSelection
	Default() routing.ModelSelection
}

// RoutingHandler answers routing questions without calling any provider
type RoutingHandler struct {
	router RoutingTable
	logger *zap.Logger
}

// NewRoutingHandler creates a new RoutingHandler
func NewRoutingHandler(router RoutingTable, logger *zap.Logger) *RoutingHandler {
	return &RoutingHandler{
		router: router,
		logger: logger,
	}
}

// HandleRoute handles POST /api/v1/route
func (h *RoutingHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var req RouteRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	item := inference.Item{
		Operation:  req.Operation,
		Intent:     req.Intent,
		Complexity: req.Complexity,
		Language:   req.Language,
	}.WithDefaults()
	descriptor := item.Descriptor()

	selection := h.router.SelectOptimalModel(descriptor)
	alternates := h.router.Alternates(descriptor.Intent, selection)
	if alternates == nil {
		alternates = []routing.ModelSelection{}
	}

	if err := utils.WriteOK(w, RouteResponse{
		Descriptor: descriptor,
		Selection:  selection,
		Alternates: alternates,
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleRoutingTable handles GET /api/v1/routing-table
func (h *RoutingHandler) HandleRoutingTable(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, RoutingTableResponse{
		Baseline:  h.router.Baseline(),
		Default:   h.router.Default(),
		Fallbacks: h.router.Fallbacks(),
	}); err != nil {
		h.logger.Error("failed to write routing table", zap.Error(err))
	}
}
