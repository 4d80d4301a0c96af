package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
				assert.False(t, cfg.Server.TLS.Enabled)
				assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
				assert.Equal(t, "https://api.anthropic.com/v1", cfg.Providers.Claude.BaseURL)
				assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Providers.Google.BaseURL)
				assert.Equal(t, "https://api.deepseek.com/v1", cfg.Providers.DeepSeek.BaseURL)
				assert.Equal(t, 60*time.Second, cfg.Providers.Google.Timeout)
				assert.True(t, cfg.Routing.FallbackEnabled)
				assert.Empty(t, cfg.Routing.PolicyFile)
				assert.Empty(t, cfg.Providers.Configured())
			},
		},
		{
			name: "production configuration with providers",
			envVars: map[string]string{
				"ENVIRONMENT":      "production",
				"SERVER_PORT":      "9000",
				"OPENAI_API_KEY":   "sk-xxxxx",
				"DEEPSEEK_API_KEY": "ds-xxxxx",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, []string{"openai", "deepseek"}, cfg.Providers.Configured())
			},
		},
		{
			name: "anthropic key alias",
			envVars: map[string]string{
				"ANTHROPIC_API_KEY": "ant-key",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "ant-key", cfg.Providers.Claude.APIKey)
			},
		},
		{
			name: "claude key wins over alias",
			envVars: map[string]string{
				"CLAUDE_API_KEY":    "claude-key",
				"ANTHROPIC_API_KEY": "ant-key",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "claude-key", cfg.Providers.Claude.APIKey)
			},
		},
		{
			name: "provider overrides",
			envVars: map[string]string{
				"GOOGLE_BASE_URL": "http://localhost:9999/v1beta/",
				"GOOGLE_TIMEOUT":  "5s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:9999/v1beta", cfg.Providers.Google.BaseURL)
				assert.Equal(t, 5*time.Second, cfg.Providers.Google.Timeout)
			},
		},
		{
			name: "routing configuration",
			envVars: map[string]string{
				"ROUTING_POLICY_FILE": "/etc/router/policy.yaml",
				"PRICING_FILE":        "/etc/router/pricing.yaml",
				"FALLBACK_ENABLED":    "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/etc/router/policy.yaml", cfg.Routing.PolicyFile)
				assert.Equal(t, "/etc/router/pricing.yaml", cfg.Routing.PricingFile)
				assert.False(t, cfg.Routing.FallbackEnabled)
			},
		},
		{
			name: "server configuration",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "120s",
				"REQUEST_TIMEOUT":      "45s",
				"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "console",
				"METRICS_ENABLED": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "console", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "production without any provider",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "invalid base URL",
			envVars: map[string]string{
				"OPENAI_BASE_URL": "not a url",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	provider := ProviderConfig{BaseURL: "https://api.example.com/v1", Timeout: time.Second}
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Port: 8080, RequestTimeout: time.Minute},
		Providers: ProvidersConfig{
			OpenAI:   provider,
			Claude:   provider,
			Google:   provider,
			DeepSeek: provider,
		},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid development config",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "invalid server port",
		},
		{
			name:    "zero provider timeout",
			mutate:  func(c *Config) { c.Providers.Claude.Timeout = 0 },
			wantErr: true,
			errMsg:  "claude timeout must be positive",
		},
		{
			name:    "production without keys",
			mutate:  func(c *Config) { c.Environment = "prod" },
			wantErr: true,
			errMsg:  "at least one LLM provider",
		},
		{
			name: "production with a key",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Providers.Google.APIKey = "AIza"
			},
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: true,
			errMsg:  "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "dev"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "production"}).IsDevelopment())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"empty value", "", true, true},
		{"invalid bool", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, getEnvAsList("TEST_LIST", nil))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsList("TEST_LIST", []string{"x"}))
}

func TestGetEnvAsHeaders(t *testing.T) {
	t.Setenv("TEST_HEADERS", "OpenAI-Organization: org-1, X-Trace:abc ,broken,:nameless")

	headers := getEnvAsHeaders("TEST_HEADERS")

	assert.Equal(t, map[string]string{
		"OpenAI-Organization": "org-1",
		"X-Trace":             "abc",
	}, headers)

	t.Setenv("TEST_HEADERS", "")
	assert.Empty(t, getEnvAsHeaders("TEST_HEADERS"))
}
