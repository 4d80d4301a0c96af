package models

import "time"

// TimestampLayout is the ISO-8601 layout used for data.timestamp (UTC, millisecond precision)
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// UnifiedResponse is the provider independent envelope returned for every
// call attempt, successful or not.
type UnifiedResponse struct {
	Success bool           `json:"success"`
	Data    ResponseData   `json:"data"`
	Error   *ResponseError `json:"error,omitempty"`
}

// ResponseData holds the generated content and where it came from
type ResponseData struct {
	Content   string           `json:"content"`
	Model     string           `json:"model"`
	Provider  string           `json:"provider"`
	Timestamp string           `json:"timestamp"`
	Metadata  ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries per-call measurements. Optional fields are only
// set when the provider surfaced the data needed to compute them.
type ResponseMetadata struct {
	TokensUsed   *int     `json:"tokens_used,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	LatencyMs    int64    `json:"latency_ms"`
	ModelVersion string   `json:"model_version,omitempty"`

	// Set by the fallback coordinator when an alternate model answered
	FallbackModel string `json:"fallback_model,omitempty"`
	OriginalModel string `json:"original_model,omitempty"`
}

// ResponseError describes why a call failed
type ResponseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewSuccessResponse builds a successful envelope stamped with the current time
func NewSuccessResponse(content, model, provider string, metadata ResponseMetadata) *UnifiedResponse {
	return &UnifiedResponse{
		Success: true,
		Data: ResponseData{
			Content:   content,
			Model:     model,
			Provider:  provider,
			Timestamp: FormatTimestamp(time.Now()),
			Metadata:  metadata,
		},
	}
}

// NewErrorResponse builds a failed envelope. Content is always empty.
func NewErrorResponse(model, provider string, latencyMs int64, respErr *ResponseError) *UnifiedResponse {
	return &UnifiedResponse{
		Success: false,
		Data: ResponseData{
			Model:     model,
			Provider:  provider,
			Timestamp: FormatTimestamp(time.Now()),
			Metadata:  ResponseMetadata{LatencyMs: latencyMs},
		},
		Error: respErr,
	}
}

// StampedAt replaces the construction timestamp with t
func (r *UnifiedResponse) StampedAt(t time.Time) *UnifiedResponse {
	r.Data.Timestamp = FormatTimestamp(t)
	return r
}

// FormatTimestamp renders t in UTC using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ErrorCode returns the error code or "" for successful responses
func (r *UnifiedResponse) ErrorCode() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// ErrorMessage returns the error message or "" for successful responses
func (r *UnifiedResponse) ErrorMessage() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return r.Error.Message
}
