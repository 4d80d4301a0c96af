package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	Routing       RoutingConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// ProviderConfig holds the connection settings of one LLM provider
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Headers are extra request headers, e.g. OpenAI-Organization
	Headers map[string]string
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	OpenAI   ProviderConfig
	Claude   ProviderConfig
	Google   ProviderConfig
	DeepSeek ProviderConfig
}

// RoutingConfig holds routing policy and pricing overrides
type RoutingConfig struct {
	PolicyFile      string
	PricingFile     string
	FallbackEnabled bool
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Providers: ProvidersConfig{
			OpenAI:   loadProviderConfig("OPENAI", "https://api.openai.com/v1"),
			Claude:   loadProviderConfig("CLAUDE", "https://api.anthropic.com/v1"),
			Google:   loadProviderConfig("GOOGLE", "https://generativelanguage.googleapis.com/v1beta"),
			DeepSeek: loadProviderConfig("DEEPSEEK", "https://api.deepseek.com/v1"),
		},
		Routing: RoutingConfig{
			PolicyFile:      getEnv("ROUTING_POLICY_FILE", ""),
			PricingFile:     getEnv("PRICING_FILE", ""),
			FallbackEnabled: getEnvAsBool("FALLBACK_ENABLED", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Claude keys are commonly exported under the Anthropic name
	if cfg.Providers.Claude.APIKey == "" {
		cfg.Providers.Claude.APIKey = getEnv("ANTHROPIC_API_KEY", "")
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	for name, p := range c.Providers.byName() {
		if p.Timeout <= 0 {
			return fmt.Errorf("%s timeout must be positive", name)
		}
		if _, err := url.ParseRequestURI(p.BaseURL); err != nil {
			return fmt.Errorf("%s base URL is invalid: %w", name, err)
		}
	}

	// At least one provider API key required in production
	if c.IsProduction() && len(c.Providers.Configured()) == 0 {
		return errors.New("at least one LLM provider must be configured in production")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Configured returns the names of providers with an API key, in a fixed order.
// Safe for logging: keys are never included.
func (p ProvidersConfig) Configured() []string {
	var names []string
	for _, name := range []string{"openai", "claude", "google", "deepseek"} {
		if p.byName()[name].APIKey != "" {
			names = append(names, name)
		}
	}
	return names
}

func (p ProvidersConfig) byName() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"openai":   p.OpenAI,
		"claude":   p.Claude,
		"google":   p.Google,
		"deepseek": p.DeepSeek,
	}
}

func loadProviderConfig(prefix, defaultBaseURL string) ProviderConfig {
	return ProviderConfig{
		APIKey:  getEnv(prefix+"_API_KEY", ""),
		BaseURL: strings.TrimRight(getEnv(prefix+"_BASE_URL", defaultBaseURL), "/"),
		Timeout: getEnvAsDuration(prefix+"_TIMEOUT", 60*time.Second),
		Headers: getEnvAsHeaders(prefix + "_HEADERS"),
	}
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsHeaders parses "Name:Value,Name2:Value2". Entries without a name
// or separator are skipped.
func getEnvAsHeaders(key string) map[string]string {
	headers := make(map[string]string)
	for _, entry := range getEnvAsList(key, nil) {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}
