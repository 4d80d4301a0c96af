package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/upb/llm-intent-router/services/providers"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter implements the Provider interface for Google's Gemini API
type GeminiAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig) *GeminiAdapter {
	config = config.WithDefaults(defaultBaseURL)

	return &GeminiAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Builder adapts NewGeminiAdapter to providers.ProviderBuilder
func Builder(config providers.ProviderConfig) (providers.Provider, error) {
	return NewGeminiAdapter(config), nil
}

// Name returns the provider name
func (a *GeminiAdapter) Name() providers.Kind {
	return providers.KindGoogle
}

// Call posts to models/<model>:generateContent with the API key in the query string
func (a *GeminiAdapter) Call(ctx context.Context, model, prompt string) (*providers.RawResponse, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingAPIKey, "Google API key is not configured", 0, false, nil)
	}

	req := GenerateContentRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}

	return providers.PostJSON(ctx, a.httpClient, a.Name(), a.endpoint(model), a.config.HeadersWith(nil), req)
}

func (a *GeminiAdapter) endpoint(model string) string {
	query := url.Values{}
	query.Set("key", a.config.APIKey)
	return fmt.Sprintf("%s/models/%s:generateContent?%s", a.config.BaseURL, url.PathEscape(model), query.Encode())
}

// GenerateContentRequest is the generateContent request body
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// Content groups the parts of one turn
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a text fragment
type Part struct {
	Text string `json:"text"`
}
