package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/middleware"
	"github.com/upb/llm-intent-router/services/inference"
	"github.com/upb/llm-intent-router/utils"
)

// MaxBatchItems bounds the number of items accepted in one generate call
const MaxBatchItems = 50

// GenerateRequest is the body of POST /api/v1/generate
type GenerateRequest struct {
	Items          []inference.Item `json:"items" validate:"required,min=1,max=50,dive"`
	ContinueOnFail bool             `json:"continue_on_fail"`
}

// GenerateResponse wraps the per-item outcomes in input order
type GenerateResponse struct {
	Results []inference.ItemOutcome `json:"results"`
}

// InferenceService runs batches of items
type InferenceService interface {
	ExecuteBatch(ctx context.Context, items []inference.Item, continueOnFail bool) ([]inference.ItemOutcome, error)
}

// GenerateHandler handles generation requests
type GenerateHandler struct {
	service InferenceService
	logger  *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(service InferenceService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGenerate handles POST /api/v1/generate
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req GenerateRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	h.logger.Debug("processing generate request",
		zap.String("request_id", requestID),
		zap.Int("items", len(req.Items)),
		zap.Bool("continue_on_fail", req.ContinueOnFail))

	outcomes, err := h.service.ExecuteBatch(ctx, req.Items, req.ContinueOnFail)
	if err != nil {
		h.logger.Warn("generate request aborted",
			zap.String("request_id", requestID),
			zap.Int("completed", len(outcomes)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, GenerateResponse{Results: outcomes}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
