package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Kind identifies an LLM backend
type Kind string

const (
	KindOpenAI   Kind = "openai"
	KindClaude   Kind = "claude"
	KindGoogle   Kind = "google"
	KindDeepSeek Kind = "deepseek"
)

// AllKinds returns every supported provider kind in a stable order
func AllKinds() []Kind {
	return []Kind{KindOpenAI, KindClaude, KindGoogle, KindDeepSeek}
}

// Valid reports whether k is one of the supported provider kinds
func (k Kind) Valid() bool {
	switch k {
	case KindOpenAI, KindClaude, KindGoogle, KindDeepSeek:
		return true
	}
	return false
}

// String returns the provider name
func (k Kind) String() string {
	return string(k)
}

// Provider is the capability every backend adapter implements: accept a
// model and a prompt, return the provider's raw payload or a transport error.
type Provider interface {
	// Name returns the provider kind served by this adapter
	Name() Kind

	// Call issues exactly one outbound request. It does not retry and does
	// not interpret the body of a successful response.
	Call(ctx context.Context, model, prompt string) (*RawResponse, error)
}

// RawResponse is the unparsed body of a 2xx provider response
type RawResponse struct {
	// Provider that produced the body
	Provider Kind

	// StatusCode of the HTTP response
	StatusCode int

	// Body is the JSON payload exactly as returned by the provider
	Body json.RawMessage
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// Additional headers
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 60 * time.Second,
		Headers: make(map[string]string),
	}
}

// WithDefaults fills empty fields with the given base URL and the default timeout
func (c ProviderConfig) WithDefaults(baseURL string) ProviderConfig {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultProviderConfig().Timeout
	}
	return c
}

// HeadersWith returns the configured extra headers merged over base, keyed
// by canonical header name. Entries in base win so adapters keep control of
// auth headers whatever case the configured names use.
func (c ProviderConfig) HeadersWith(base map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(c.Headers))
	for k, v := range c.Headers {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range base {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}

// Error codes reported by adapters and the dispatch layer
const (
	CodeMissingAPIKey       = "MISSING_API_KEY"
	CodeUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	CodeMarshalError        = "MARSHAL_ERROR"
	CodeRequestError        = "REQUEST_ERROR"
	CodeHTTPError           = "HTTP_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodeCancelled           = "CANCELLED"
	CodeReadError           = "READ_ERROR"
	CodeUnknown             = "UNKNOWN_ERROR"
)

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider Kind

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider Kind, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
