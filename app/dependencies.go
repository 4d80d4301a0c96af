package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/config"
	"github.com/upb/llm-intent-router/internal/observability"
	"github.com/upb/llm-intent-router/services/dispatch"
	"github.com/upb/llm-intent-router/services/fallback"
	"github.com/upb/llm-intent-router/services/inference"
	"github.com/upb/llm-intent-router/services/normalizer"
	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/services/routing"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Registry backs /metrics; nil when metrics are disabled
	Registry *prometheus.Registry

	// Routing and dispatch
	Router     *routing.ModelRouter
	Normalizer *normalizer.Normalizer
	Dispatcher *dispatch.Client
	Fallback   *fallback.Coordinator

	// Entry point
	Inference *inference.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics(cfg)

	if err := deps.initRouting(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize routing: %w", err)
	}

	if err := deps.initDispatch(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.Fallback = fallback.NewCoordinator(deps.Dispatcher, deps.Metrics, logger)
	deps.Inference = inference.NewService(
		deps.Router,
		deps.Dispatcher,
		deps.Fallback,
		inference.Config{FallbackEnabled: cfg.Routing.FallbackEnabled},
		deps.Metrics,
		logger,
	)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers_configured", cfg.Providers.Configured()),
		zap.Bool("fallback_enabled", cfg.Routing.FallbackEnabled),
		zap.Bool("metrics_enabled", deps.Registry != nil))
	return deps, nil
}

// initMetrics creates a private registry so tests can build several
// Dependencies without duplicate registration panics
func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		return
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d.Registry = registry
	d.Metrics = observability.NewMetrics(registry)
}

// initRouting loads the routing policy and pricing table, falling back to the
// built-in tables when no file is configured
func (d *Dependencies) initRouting(cfg *config.Config) error {
	policy := routing.DefaultPolicy()
	if cfg.Routing.PolicyFile != "" {
		loaded, err := routing.LoadPolicy(cfg.Routing.PolicyFile)
		if err != nil {
			return err
		}
		policy = loaded
		d.Logger.Info("routing policy loaded", zap.String("path", cfg.Routing.PolicyFile))
	}
	d.Router = routing.NewModelRouter(policy)

	pricing := normalizer.DefaultPricing()
	if cfg.Routing.PricingFile != "" {
		loaded, err := normalizer.LoadPricing(cfg.Routing.PricingFile)
		if err != nil {
			return err
		}
		pricing = loaded
		d.Logger.Info("pricing table loaded", zap.String("path", cfg.Routing.PricingFile))
	}
	d.Normalizer = normalizer.New(pricing)

	return nil
}

// initDispatch builds the provider adapters from config
func (d *Dependencies) initDispatch(cfg *config.Config) error {
	credentials, settings := providerSettings(cfg.Providers)

	client, err := dispatch.NewClient(credentials, dispatch.Options{
		Providers:  settings,
		Normalizer: d.Normalizer,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
	})
	if err != nil {
		return err
	}

	if len(client.ConfiguredProviders()) == 0 {
		d.Logger.Warn("no LLM provider credentials configured")
	}

	d.Dispatcher = client
	return nil
}

// providerSettings splits config into credentials and per-provider connection
// settings. Keys only travel in Credentials.
func providerSettings(cfg config.ProvidersConfig) (dispatch.Credentials, map[providers.Kind]providers.ProviderConfig) {
	byKind := map[providers.Kind]config.ProviderConfig{
		providers.KindOpenAI:   cfg.OpenAI,
		providers.KindClaude:   cfg.Claude,
		providers.KindGoogle:   cfg.Google,
		providers.KindDeepSeek: cfg.DeepSeek,
	}

	credentials := dispatch.Credentials{}
	settings := make(map[providers.Kind]providers.ProviderConfig, len(byKind))
	for kind, p := range byKind {
		if p.APIKey != "" {
			credentials[kind] = p.APIKey
		}
		settings[kind] = providers.ProviderConfig{
			BaseURL: p.BaseURL,
			Timeout: p.Timeout,
			Headers: p.Headers,
		}
	}

	return credentials, settings
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	// Sync logger; stderr/stdout sync errors are expected on some platforms
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return nil
}
