// Package normalizer converts raw provider payloads and call errors into the
// provider independent models.UnifiedResponse envelope.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services/providers"
)

// Codes produced by the normalizer itself
const (
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	DefaultErrorMessage   = "An unknown error occurred"
)

const bodyPreviewLimit = 256

// extractor describes where a provider keeps the fields we surface
type extractor struct {
	content      string
	totalTokens  string
	inputTokens  string
	outputTokens string
	version      string
}

var extractors = map[providers.Kind]extractor{
	providers.KindOpenAI: {
		content:     "choices.0.message.content",
		totalTokens: "usage.total_tokens",
		version:     "model",
	},
	providers.KindClaude: {
		content:      "content.0.text",
		inputTokens:  "usage.input_tokens",
		outputTokens: "usage.output_tokens",
		version:      "model",
	},
	providers.KindGoogle: {
		content:     "candidates.0.content.parts.0.text",
		totalTokens: "usageMetadata.totalTokenCount",
		version:     "modelVersion",
	},
	providers.KindDeepSeek: {
		content:     "choices.0.message.content",
		totalTokens: "usage.total_tokens",
		version:     "model",
	},
}

// Normalizer is stateless apart from its pricing table and clock
type Normalizer struct {
	pricing *PricingTable
	now     func() time.Time
}

// New creates a normalizer. A nil pricing table uses DefaultPricing.
func New(pricing *PricingTable) *Normalizer {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &Normalizer{pricing: pricing, now: time.Now}
}

// Normalize builds the envelope for one call attempt. It never panics and
// never returns an error: every failure becomes success=false.
func (n *Normalizer) Normalize(kind providers.Kind, raw *providers.RawResponse, callErr error, model string, start time.Time) (resp *models.UnifiedResponse) {
	latency := n.latencyMs(start)

	defer func() {
		if r := recover(); r != nil {
			resp = n.failure(kind, model, latency, &models.ResponseError{
				Code:    providers.CodeUnknown,
				Message: fmt.Sprintf("%v", r),
			})
		}
	}()

	if callErr != nil {
		return n.failure(kind, model, latency, errorFromCall(callErr))
	}

	ext, ok := extractors[kind]
	if !ok {
		return n.failure(kind, model, latency, &models.ResponseError{
			Code:    providers.CodeUnsupportedProvider,
			Message: fmt.Sprintf("Unsupported provider: %s", kind),
		})
	}

	if raw == nil {
		return n.failure(kind, model, latency, &models.ResponseError{
			Code:    providers.CodeUnknown,
			Message: DefaultErrorMessage,
		})
	}

	if !gjson.ValidBytes(raw.Body) {
		return n.failure(kind, model, latency, &models.ResponseError{
			Code:    CodeMalformedResponse,
			Message: "Provider returned invalid JSON",
			Details: shapeDetails(kind, raw),
		})
	}

	doc := gjson.ParseBytes(raw.Body)

	content := doc.Get(ext.content)
	if content.Type != gjson.String {
		if embedded := embeddedError(doc); embedded != nil {
			embedded.Details = shapeDetails(kind, raw)
			return n.failure(kind, model, latency, embedded)
		}
		return n.failure(kind, model, latency, &models.ResponseError{
			Code:    CodeMalformedResponse,
			Message: fmt.Sprintf("Response is missing text content at %s", ext.content),
			Details: shapeDetails(kind, raw),
		})
	}

	metadata := models.ResponseMetadata{
		LatencyMs:    latency,
		ModelVersion: model,
	}

	if v := doc.Get(ext.version); v.Type == gjson.String && v.String() != "" {
		metadata.ModelVersion = v.String()
	}

	if usage, ok := ext.usage(doc); ok {
		tokens := usage.Total
		metadata.TokensUsed = &tokens
		if cost, ok := n.pricing.Cost(kind, model, usage); ok {
			metadata.Cost = &cost
		}
	}

	return models.NewSuccessResponse(content.String(), model, kind.String(), metadata).StampedAt(n.now())
}

func (n *Normalizer) latencyMs(start time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	ms := n.now().Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func (n *Normalizer) failure(kind providers.Kind, model string, latency int64, respErr *models.ResponseError) *models.UnifiedResponse {
	if respErr.Code == "" {
		respErr.Code = providers.CodeUnknown
	}
	if respErr.Message == "" {
		respErr.Message = DefaultErrorMessage
	}

	return models.NewErrorResponse(model, kind.String(), latency, respErr).StampedAt(n.now())
}

func (e extractor) usage(doc gjson.Result) (Usage, bool) {
	if e.totalTokens != "" {
		total := doc.Get(e.totalTokens)
		if total.Type != gjson.Number {
			return Usage{}, false
		}
		return Usage{Total: int(total.Int())}, true
	}

	input := doc.Get(e.inputTokens)
	output := doc.Get(e.outputTokens)
	if input.Type != gjson.Number || output.Type != gjson.Number {
		return Usage{}, false
	}

	in, out := int(input.Int()), int(output.Int())
	return Usage{Total: in + out, Input: in, Output: out, Split: true}, true
}

// errorFromCall maps a transport error to the envelope error
func errorFromCall(err error) *models.ResponseError {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		details := map[string]interface{}{
			"provider":  provErr.Provider.String(),
			"retryable": providers.IsRetryable(err),
		}
		if provErr.StatusCode > 0 {
			details["status_code"] = provErr.StatusCode
		}
		if provErr.Cause != nil {
			details["cause"] = provErr.Cause.Error()
		}
		return &models.ResponseError{
			Code:    provErr.Code,
			Message: provErr.Message,
			Details: details,
		}
	}

	return &models.ResponseError{
		Code:    providers.CodeUnknown,
		Message: err.Error(),
	}
}

// embeddedError reads a provider error object from a 2xx body
func embeddedError(doc gjson.Result) *models.ResponseError {
	errObj := doc.Get("error")
	if !errObj.IsObject() {
		return nil
	}

	code := CodeMalformedResponse
	for _, path := range []string{"type", "status", "code"} {
		if v := errObj.Get(path); v.Exists() && v.String() != "" {
			code = v.String()
			break
		}
	}

	return &models.ResponseError{
		Code:    code,
		Message: errObj.Get("message").String(),
	}
}

func shapeDetails(kind providers.Kind, raw *providers.RawResponse) map[string]interface{} {
	preview := string(raw.Body)
	if len(preview) > bodyPreviewLimit {
		preview = preview[:bodyPreviewLimit] + "..."
	}
	return map[string]interface{}{
		"provider":     kind.String(),
		"status_code":  raw.StatusCode,
		"body_preview": preview,
	}
}
