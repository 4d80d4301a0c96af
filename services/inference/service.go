package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/internal/observability"
	"github.com/upb/llm-intent-router/middleware"
	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services"
	"github.com/upb/llm-intent-router/services/dispatch"
	"github.com/upb/llm-intent-router/services/routing"
)

// Error codes for item failures that never reached a provider
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeCancelled  = "CANCELLED"
	CodeTimeout    = "TIMEOUT"
)

// Router selects the primary model and its alternates
type Router interface {
	SelectOptimalModel(req routing.RequestDescriptor) routing.ModelSelection
	Alternates(intent routing.Intent, primary routing.ModelSelection) []routing.ModelSelection
}

// Recoverer retries a failed call on alternate models
type Recoverer interface {
	Recover(ctx context.Context, failed *models.UnifiedResponse, enabled bool, primary routing.ModelSelection, alternates []routing.ModelSelection, prompt string) *models.UnifiedResponse
}

// Config holds service level switches
type Config struct {
	// FallbackEnabled gates fallback globally; items can only opt out
	FallbackEnabled bool
}

// Service runs items through routing, dispatch and fallback
type Service struct {
	router     Router
	dispatcher dispatch.Dispatcher
	fallback   Recoverer
	config     Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewService creates a new inference service
func NewService(router Router, dispatcher dispatch.Dispatcher, fallback Recoverer, config Config, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		router:     router,
		dispatcher: dispatcher,
		fallback:   fallback,
		config:     config,
		metrics:    metrics,
		logger:     logger,
	}
}

// Execute processes a single item
func (s *Service) Execute(ctx context.Context, item Item) (*Result, error) {
	return s.execute(ctx, 0, item)
}

// ExecuteBatch processes items in order. With continueOnFail every failure
// becomes an error outcome; otherwise the first failure stops the batch and
// is returned as *ItemError together with the outcomes gathered so far.
func (s *Service) ExecuteBatch(ctx context.Context, items []Item, continueOnFail bool) ([]ItemOutcome, error) {
	if len(items) == 0 {
		return nil, services.ErrEmptyBatch
	}

	outcomes := make([]ItemOutcome, 0, len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			return outcomes, interrupted(ctx, i)
		}

		result, err := s.execute(ctx, i, item)
		if err == nil {
			outcomes = append(outcomes, ItemOutcome{Index: i, Result: result})
			continue
		}

		var itemErr *ItemError
		if !errors.As(err, &itemErr) {
			itemErr = newItemError(i, services.ErrorTypeInternal, "UNKNOWN_ERROR", err.Error(), err)
		}

		if !continueOnFail {
			return outcomes, itemErr
		}

		outcomes = append(outcomes, ItemOutcome{Index: i, Error: itemErr})
	}

	return outcomes, nil
}

func (s *Service) execute(ctx context.Context, index int, item Item) (*Result, error) {
	item = item.WithDefaults()

	if strings.TrimSpace(item.Prompt) == "" {
		return nil, newItemError(index, services.ErrorTypeValidation, CodeValidation, services.ErrEmptyPrompt.Message, services.ErrEmptyPrompt)
	}

	if !item.Operation.Valid() {
		return nil, newItemError(index, services.ErrorTypeValidation, CodeValidation,
			fmt.Sprintf("Unsupported operation: %s", item.Operation), services.ErrInvalidOperation)
	}

	inferenceID := uuid.New().String()
	logger := s.logger.With(
		zap.String("inference_id", inferenceID),
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int("item_index", index),
	)

	selection := s.router.SelectOptimalModel(item.Descriptor())
	s.metrics.RecordRoutingDecision(string(item.Intent), selection.Provider.String(), selection.Model)

	logger.Info("model selected",
		zap.String("intent", string(item.Intent)),
		zap.String("complexity", string(item.Complexity)),
		zap.String("model", selection.Model),
		zap.String("provider", selection.Provider.String()),
		zap.String("reason", selection.Reason),
	)

	resp := s.dispatcher.CallModel(ctx, selection, item.Prompt)

	if !resp.Success && s.fallback != nil {
		enabled := s.config.FallbackEnabled && *item.EnableFallback
		alternates := s.router.Alternates(item.Intent, selection)
		resp = s.fallback.Recover(ctx, resp, enabled, selection, alternates, item.Prompt)
	}

	if !resp.Success && ctx.Err() != nil {
		logger.Warn("item interrupted", zap.String("code", resp.ErrorCode()), zap.Error(ctx.Err()))
		return nil, interrupted(ctx, index)
	}

	if !resp.Success {
		message := resp.ErrorMessage()
		if message == "" {
			message = "Unknown error"
		}

		logger.Warn("item failed", zap.String("code", resp.ErrorCode()), zap.String("error", message))

		return nil, newItemError(index, services.ErrorTypeExternal, resp.ErrorCode(), "AI request failed: "+message, services.ErrProviderError)
	}

	return &Result{
		ResponseData:   resp.Data,
		Operation:      item.Operation,
		OriginalPrompt: item.Prompt,
		SelectedModel:  selection,
		InferenceID:    inferenceID,
	}, nil
}

// newItemError wraps cause in a DomainError of its own so the item index and
// code travel as details. Shared sentinels are never mutated.
func newItemError(index int, errType services.ErrorType, code, message string, cause error) *ItemError {
	return &ItemError{
		Index:   index,
		Code:    code,
		Message: message,
		Err: services.NewDomainError(errType, message, cause).
			WithDetail("code", code).
			WithDetail("item_index", index),
	}
}

// interrupted reports an item stopped by cancellation or the request deadline
func interrupted(ctx context.Context, index int) *ItemError {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return newItemError(index, services.ErrorTypeTimeout, CodeTimeout, "request timed out", err)
	}
	return newItemError(index, services.ErrorTypeTimeout, CodeCancelled, "request cancelled", err)
}
