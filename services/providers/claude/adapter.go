package claude

import (
	"context"
	"net/http"

	"github.com/upb/llm-intent-router/services/providers"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 4000
)

// ClaudeAdapter implements the Provider interface for Anthropic's Messages API
type ClaudeAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewClaudeAdapter creates a new Claude adapter
func NewClaudeAdapter(config providers.ProviderConfig) *ClaudeAdapter {
	config = config.WithDefaults(defaultBaseURL)

	return &ClaudeAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Builder adapts NewClaudeAdapter to providers.ProviderBuilder
func Builder(config providers.ProviderConfig) (providers.Provider, error) {
	return NewClaudeAdapter(config), nil
}

// Name returns the provider name
func (a *ClaudeAdapter) Name() providers.Kind {
	return providers.KindClaude
}

// Call posts the prompt to /messages. Auth goes in x-api-key, not Authorization.
func (a *ClaudeAdapter) Call(ctx context.Context, model, prompt string) (*providers.RawResponse, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(a.Name(), providers.CodeMissingAPIKey, "Claude API key is not configured", 0, false, nil)
	}

	req := MessagesRequest{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages:  []Message{{Role: "user", Content: prompt}},
	}

	headers := a.config.HeadersWith(map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": anthropicVersion,
	})

	return providers.PostJSON(ctx, a.httpClient, a.Name(), a.config.BaseURL+"/messages", headers, req)
}

// MessagesRequest is the /messages request body
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Message is a single conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
