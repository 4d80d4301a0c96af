package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry manages provider adapters keyed by provider kind
type Registry struct {
	mu        sync.RWMutex
	providers map[Kind]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Kind]Provider),
	}
}

// RegisterProvider registers a provider instance
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	if _, exists := r.providers[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers[name] = provider
	return nil
}

// GetProvider retrieves a provider by kind
func (r *Registry) GetProvider(name Kind) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	return provider, nil
}

// ListProviders returns all registered provider kinds, sorted
func (r *Registry) ListProviders() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Kind, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// ProviderBuilder is a function that creates a provider instance
type ProviderBuilder func(config ProviderConfig) (Provider, error)

// RegistryBuilder helps build a registry with multiple providers
type RegistryBuilder struct {
	registry *Registry
	builders map[Kind]ProviderBuilder
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		builders: make(map[Kind]ProviderBuilder),
	}
}

// WithProviderBuilder registers a provider builder
func (rb *RegistryBuilder) WithProviderBuilder(name Kind, builder ProviderBuilder) *RegistryBuilder {
	rb.builders[name] = builder
	return rb
}

// Build creates one provider per known builder and returns the registry.
// Builders without a matching config get the default configuration.
func (rb *RegistryBuilder) Build(configs map[Kind]ProviderConfig) (*Registry, error) {
	for name, builder := range rb.builders {
		config, ok := configs[name]
		if !ok {
			config = DefaultProviderConfig()
		}
		provider, err := builder(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", name, err)
		}
		if err := rb.registry.RegisterProvider(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", name, err)
		}
	}

	return rb.registry, nil
}
