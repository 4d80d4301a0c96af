// Package dispatch owns provider credentials and turns a routing decision
// plus a prompt into a normalized response.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/internal/observability"
	"github.com/upb/llm-intent-router/internal/redact"
	"github.com/upb/llm-intent-router/middleware"
	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services/normalizer"
	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/services/providers/claude"
	"github.com/upb/llm-intent-router/services/providers/deepseek"
	"github.com/upb/llm-intent-router/services/providers/google"
	"github.com/upb/llm-intent-router/services/providers/openai"
	"github.com/upb/llm-intent-router/services/routing"
)

// Credentials maps provider kind to API key. Keys are never printed.
type Credentials map[providers.Kind]string

// Configured returns the kinds that have a non-empty key, sorted
func (c Credentials) Configured() []providers.Kind {
	kinds := make([]providers.Kind, 0, len(c))
	for kind, key := range c {
		if key != "" {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// String lists the configured providers without their keys
func (c Credentials) String() string {
	names := make([]string, 0, len(c))
	for _, kind := range c.Configured() {
		names = append(names, kind.String())
	}
	return fmt.Sprintf("Credentials{%s}", strings.Join(names, ","))
}

// GoString keeps %#v from printing keys
func (c Credentials) GoString() string {
	return c.String()
}

func (c Credentials) values() []string {
	values := make([]string, 0, len(c))
	for _, key := range c {
		values = append(values, key)
	}
	return values
}

// Dispatcher is what the fallback coordinator and inference service call
type Dispatcher interface {
	CallModel(ctx context.Context, selection routing.ModelSelection, prompt string) *models.UnifiedResponse
}

// Options configures a Client. Zero values are replaced with defaults.
type Options struct {
	// Providers holds per-provider base URL, timeout and headers. APIKey
	// fields are ignored in favour of Credentials.
	Providers  map[providers.Kind]providers.ProviderConfig
	Normalizer *normalizer.Normalizer
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Normalizer == nil {
		o.Normalizer = normalizer.New(nil)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Client resolves adapters by provider kind and normalizes every outcome
type Client struct {
	registry    *providers.Registry
	credentials Credentials
	redactor    *redact.Redactor
	normalizer  *normalizer.Normalizer
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewClient builds an adapter for each supported provider. Providers without
// a key are still registered and fail with MISSING_API_KEY when called.
func NewClient(credentials Credentials, opts Options) (*Client, error) {
	configs := make(map[providers.Kind]providers.ProviderConfig, len(providers.AllKinds()))
	for _, kind := range providers.AllKinds() {
		config, ok := opts.Providers[kind]
		if !ok {
			config = providers.DefaultProviderConfig()
		}
		config.APIKey = credentials[kind]
		configs[kind] = config
	}

	registry, err := providers.NewRegistryBuilder().
		WithProviderBuilder(providers.KindOpenAI, openai.Builder).
		WithProviderBuilder(providers.KindClaude, claude.Builder).
		WithProviderBuilder(providers.KindGoogle, google.Builder).
		WithProviderBuilder(providers.KindDeepSeek, deepseek.Builder).
		Build(configs)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}

	client := NewClientWithRegistry(registry, opts)
	client.credentials = credentials
	client.redactor = redact.New(credentials.values()...)
	return client, nil
}

// NewClientWithRegistry wraps an existing registry
func NewClientWithRegistry(registry *providers.Registry, opts Options) *Client {
	opts = opts.withDefaults()

	return &Client{
		registry:    registry,
		credentials: Credentials{},
		redactor:    redact.New(),
		normalizer:  opts.Normalizer,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// ConfiguredProviders returns the registered providers that have
// credentials, sorted by kind
func (c *Client) ConfiguredProviders() []providers.Kind {
	var configured []providers.Kind
	for _, kind := range c.registry.ListProviders() {
		if c.credentials[kind] != "" {
			configured = append(configured, kind)
		}
	}
	return configured
}

// CallModel makes one attempt against the selected provider and always
// returns a complete envelope.
func (c *Client) CallModel(ctx context.Context, selection routing.ModelSelection, prompt string) *models.UnifiedResponse {
	start := time.Now()

	var (
		raw     *providers.RawResponse
		callErr error
	)

	provider, err := c.registry.GetProvider(selection.Provider)
	if err != nil {
		callErr = providers.NewProviderError(selection.Provider, providers.CodeUnsupportedProvider,
			fmt.Sprintf("Unsupported provider: %s", selection.Provider), 0, false, nil)
	} else {
		raw, callErr = provider.Call(ctx, selection.Model, prompt)
	}

	resp := c.normalizer.Normalize(selection.Provider, raw, callErr, selection.Model, start)
	c.scrub(resp)

	c.record(ctx, selection, resp, time.Since(start))

	return resp
}

// scrub removes credentials from the error a provider or transport produced.
// Content is left untouched.
func (c *Client) scrub(resp *models.UnifiedResponse) {
	if resp == nil || resp.Error == nil {
		return
	}
	resp.Error.Message = c.redactor.String(resp.Error.Message)
	c.redactor.Map(resp.Error.Details)
}

func (c *Client) record(ctx context.Context, selection routing.ModelSelection, resp *models.UnifiedResponse, elapsed time.Duration) {
	c.metrics.RecordCall(observability.CallLabels{
		Provider: selection.Provider.String(),
		Model:    selection.Model,
		Code:     resp.ErrorCode(),
		Success:  resp.Success,
	}, elapsed, resp.Data.Metadata.TokensUsed, resp.Data.Metadata.Cost)

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("provider", selection.Provider.String()),
		zap.String("model", selection.Model),
		zap.Int64("latency_ms", resp.Data.Metadata.LatencyMs),
		zap.Bool("success", resp.Success),
	}
	if resp.Data.Metadata.TokensUsed != nil {
		fields = append(fields, zap.Int("tokens_used", *resp.Data.Metadata.TokensUsed))
	}

	if resp.Success {
		c.logger.Info("provider call completed", fields...)
		return
	}

	fields = append(fields,
		zap.String("code", resp.ErrorCode()),
		zap.String("error", resp.ErrorMessage()),
	)
	c.logger.Warn("provider call failed", fields...)
}
