package deepseek

import (
	"context"
	"net/http"

	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/services/providers/openai"
)

const (
	defaultBaseURL     = "https://api.deepseek.com/v1"
	defaultTemperature = 0.7
)

// DeepSeekAdapter implements the Provider interface for DeepSeek. The API is
// OpenAI compatible so the request body is shared with the openai package.
type DeepSeekAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewDeepSeekAdapter creates a new DeepSeek adapter
func NewDeepSeekAdapter(config providers.ProviderConfig) *DeepSeekAdapter {
	config = config.WithDefaults(defaultBaseURL)

	return &DeepSeekAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Builder adapts NewDeepSeekAdapter to providers.ProviderBuilder
func Builder(config providers.ProviderConfig) (providers.Provider, error) {
	return NewDeepSeekAdapter(config), nil
}

// Name returns the provider name
func (a *DeepSeekAdapter) Name() providers.Kind {
	return providers.KindDeepSeek
}

// Call sends the prompt to /chat/completions with bearer auth
func (a *DeepSeekAdapter) Call(ctx context.Context, model, prompt string) (*providers.RawResponse, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingAPIKey, "DeepSeek API key is not configured", 0, false, nil)
	}

	req := openai.ChatRequest{
		Model:       model,
		Messages:    []openai.Message{{Role: "user", Content: prompt}},
		Temperature: defaultTemperature,
	}

	headers := a.config.HeadersWith(map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	})

	return providers.PostJSON(ctx, a.httpClient, a.Name(), a.config.BaseURL+"/chat/completions", headers, req)
}
