package normalizer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/upb/llm-intent-router/services/providers"
)

//go:embed default_pricing.yaml
var defaultPricingYAML []byte

// Rate is a per-token price. PerToken applies to the total; Input and Output
// apply when the provider reports the two counts separately.
type Rate struct {
	PerToken float64 `yaml:"per_token,omitempty"`
	Input    float64 `yaml:"input,omitempty"`
	Output   float64 `yaml:"output,omitempty"`
}

func (r Rate) split() bool {
	return r.Input > 0 || r.Output > 0
}

// ModelRate overrides the provider default for models containing Contains
type ModelRate struct {
	Contains string `yaml:"contains"`
	Rate     `yaml:",inline"`
}

// ProviderPricing is the rate card of one provider
type ProviderPricing struct {
	Default Rate        `yaml:"default"`
	Models  []ModelRate `yaml:"models,omitempty"`
}

// PricingTable maps provider kind to its rate card
type PricingTable struct {
	Providers map[providers.Kind]ProviderPricing `yaml:"providers"`
}

// Usage is the token accounting surfaced by a provider
type Usage struct {
	Total  int
	Input  int
	Output int

	// Split is true when Input and Output were reported separately
	Split bool
}

// DefaultPricing returns the built-in rate table
func DefaultPricing() *PricingTable {
	table, err := decodePricing(defaultPricingYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded pricing table is invalid: %v", err))
	}
	return table
}

// ParsePricing overlays YAML data on the built-in table. Providers present in
// the document replace their built-in rate card.
func ParsePricing(data []byte) (*PricingTable, error) {
	overlay, err := decodePricing(data)
	if err != nil {
		return nil, err
	}

	table := DefaultPricing()
	for kind, pricing := range overlay.Providers {
		table.Providers[kind] = pricing
	}

	return table, nil
}

// LoadPricing reads a YAML pricing file. An empty path returns DefaultPricing.
func LoadPricing(path string) (*PricingTable, error) {
	if path == "" {
		return DefaultPricing(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file %s: %w", path, err)
	}

	return ParsePricing(data)
}

func decodePricing(data []byte) (*PricingTable, error) {
	var table PricingTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse pricing table: %w", err)
	}

	if table.Providers == nil {
		table.Providers = make(map[providers.Kind]ProviderPricing)
	}

	for kind := range table.Providers {
		if !kind.Valid() {
			return nil, fmt.Errorf("pricing table: unsupported provider %q", kind)
		}
	}

	return &table, nil
}

// RateFor returns the rate that applies to model on provider kind
func (t *PricingTable) RateFor(kind providers.Kind, model string) (Rate, bool) {
	if t == nil {
		return Rate{}, false
	}

	pricing, ok := t.Providers[kind]
	if !ok {
		return Rate{}, false
	}

	for _, m := range pricing.Models {
		if m.Contains != "" && strings.Contains(model, m.Contains) {
			return m.Rate, true
		}
	}

	return pricing.Default, true
}

// Cost estimates the price of a call. It returns false when no rate applies.
func (t *PricingTable) Cost(kind providers.Kind, model string, usage Usage) (float64, bool) {
	rate, ok := t.RateFor(kind, model)
	if !ok {
		return 0, false
	}

	if rate.split() && usage.Split {
		return float64(usage.Input)*rate.Input + float64(usage.Output)*rate.Output, true
	}

	if rate.PerToken > 0 {
		return float64(usage.Total) * rate.PerToken, true
	}

	return 0, false
}
