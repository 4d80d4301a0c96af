package openai

import (
	"context"
	"net/http"

	"github.com/upb/llm-intent-router/services/providers"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultTemperature = 0.7
)

// OpenAIAdapter implements the Provider interface for OpenAI
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig) *OpenAIAdapter {
	config = config.WithDefaults(defaultBaseURL)

	return &OpenAIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Builder adapts NewOpenAIAdapter to providers.ProviderBuilder
func Builder(config providers.ProviderConfig) (providers.Provider, error) {
	return NewOpenAIAdapter(config), nil
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() providers.Kind {
	return providers.KindOpenAI
}

// Call sends the prompt as a single user message to /chat/completions
func (a *OpenAIAdapter) Call(ctx context.Context, model, prompt string) (*providers.RawResponse, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingAPIKey, "OpenAI API key is not configured", 0, false, nil)
	}

	req := ChatRequest{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: defaultTemperature,
	}

	headers := a.config.HeadersWith(map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	})

	return providers.PostJSON(ctx, a.httpClient, a.Name(), a.config.BaseURL+"/chat/completions", headers, req)
}

// ChatRequest is the /chat/completions request body. DeepSeek accepts the same shape.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
