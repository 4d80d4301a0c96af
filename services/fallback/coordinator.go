// Package fallback retries a failed call against alternate models.
package fallback

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/internal/observability"
	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services/dispatch"
	"github.com/upb/llm-intent-router/services/routing"
)

// Coordinator walks an ordered list of alternates until one succeeds
type Coordinator struct {
	dispatcher dispatch.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewCoordinator creates a coordinator. metrics may be nil.
func NewCoordinator(dispatcher dispatch.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Recover returns failed unchanged when it already succeeded, fallback is
// disabled, or every alternate fails. On the first successful alternate the
// failed envelope takes over its data and is marked successful, with
// fallback_model and original_model recorded in the metadata.
func (c *Coordinator) Recover(ctx context.Context, failed *models.UnifiedResponse, enabled bool, primary routing.ModelSelection, alternates []routing.ModelSelection, prompt string) *models.UnifiedResponse {
	if failed == nil || failed.Success || !enabled {
		return failed
	}

	for _, alt := range alternates {
		if err := ctx.Err(); err != nil {
			c.logger.Info("fallback aborted", zap.Error(err), zap.String("original_model", primary.Model))
			return failed
		}

		c.logger.Info("trying fallback model",
			zap.String("original_model", primary.Model),
			zap.String("fallback_model", alt.Model),
			zap.String("provider", alt.Provider.String()),
		)

		fb := c.dispatcher.CallModel(ctx, alt, prompt)
		c.metrics.RecordFallback(alt.Provider.String(), alt.Model, fb != nil && fb.Success)

		if fb == nil || !fb.Success {
			continue
		}

		failed.Data = fb.Data
		failed.Data.Metadata.FallbackModel = alt.Model
		failed.Data.Metadata.OriginalModel = primary.Model
		failed.Success = true
		failed.Error = nil

		return failed
	}

	if len(alternates) > 0 {
		c.logger.Warn("all fallback models failed",
			zap.String("original_model", primary.Model),
			zap.Int("attempts", len(alternates)),
		)
	}

	return failed
}
