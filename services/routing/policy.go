package routing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/upb/llm-intent-router/services/providers"
)

// Policy holds the data tables used by the router
type Policy struct {
	Baseline  map[Intent]ModelSelection   `yaml:"baseline"`
	Default   ModelSelection              `yaml:"default"`
	Fallbacks map[Intent][]ModelSelection `yaml:"fallbacks"`
}

// DefaultPolicy returns the built-in routing tables
func DefaultPolicy() Policy {
	return Policy{
		Baseline: map[Intent]ModelSelection{
			IntentCodeAnalysis:        {Model: "deepseek-coder", Provider: providers.KindDeepSeek, Reason: "Code analysis task detected"},
			IntentCreativeWriting:     {Model: "claude-3-sonnet", Provider: providers.KindClaude, Reason: "Creative tasks optimized for Claude"},
			IntentDataAnalysis:        {Model: "gemini-pro", Provider: providers.KindGoogle, Reason: "Data processing capabilities"},
			IntentGeneralConversation: {Model: "gpt-4o-mini", Provider: providers.KindOpenAI, Reason: "Fast general purpose responses"},
			IntentTranslation:         {Model: "gpt-4o", Provider: providers.KindOpenAI, Reason: "Multi-language support"},
		},
		Default: ModelSelection{Model: "gpt-4o-mini", Provider: providers.KindOpenAI, Reason: "Default fallback model"},
		Fallbacks: map[Intent][]ModelSelection{
			IntentCodeAnalysis: {
				{Model: "gpt-4o", Provider: providers.KindOpenAI},
				{Model: "claude-3-sonnet", Provider: providers.KindClaude},
			},
			IntentCreativeWriting: {
				{Model: "gpt-4o", Provider: providers.KindOpenAI},
				{Model: "gemini-pro", Provider: providers.KindGoogle},
			},
			IntentDataAnalysis: {
				{Model: "gpt-4o", Provider: providers.KindOpenAI},
				{Model: "deepseek-chat", Provider: providers.KindDeepSeek},
			},
			IntentGeneralConversation: {
				{Model: "gemini-pro", Provider: providers.KindGoogle},
				{Model: "deepseek-chat", Provider: providers.KindDeepSeek},
			},
			IntentTranslation: {
				{Model: "claude-3-sonnet", Provider: providers.KindClaude},
				{Model: "gemini-pro", Provider: providers.KindGoogle},
			},
		},
	}
}

// ParsePolicy overlays YAML data on top of DefaultPolicy. Intents present in
// the document replace the built-in entry, the rest are kept.
func ParsePolicy(data []byte) (Policy, error) {
	var overlay Policy
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Policy{}, fmt.Errorf("failed to parse routing policy: %w", err)
	}

	policy := DefaultPolicy()
	for intent, selection := range overlay.Baseline {
		policy.Baseline[intent] = selection
	}
	if overlay.Default.Model != "" || overlay.Default.Provider != "" {
		policy.Default = overlay.Default
	}
	for intent, alternates := range overlay.Fallbacks {
		policy.Fallbacks[intent] = alternates
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}

	return policy, nil
}

// LoadPolicy reads a YAML policy file. An empty path returns DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read routing policy %s: %w", path, err)
	}

	return ParsePolicy(data)
}

// Validate checks that every selection names a model and a supported provider
func (p Policy) Validate() error {
	var errs []error

	check := func(where string, s ModelSelection) {
		if s.Model == "" {
			errs = append(errs, fmt.Errorf("%s: model is required", where))
		}
		if !s.Provider.Valid() {
			errs = append(errs, fmt.Errorf("%s: unsupported provider %q", where, s.Provider))
		}
	}

	for intent, s := range p.Baseline {
		check("baseline."+string(intent), s)
	}
	check("default", p.Default)
	for intent, list := range p.Fallbacks {
		for i, s := range list {
			check(fmt.Sprintf("fallbacks.%s[%d]", intent, i), s)
		}
	}

	return errors.Join(errs...)
}

func (p Policy) clone() Policy {
	out := Policy{
		Baseline:  make(map[Intent]ModelSelection, len(p.Baseline)),
		Default:   p.Default,
		Fallbacks: make(map[Intent][]ModelSelection, len(p.Fallbacks)),
	}
	for k, v := range p.Baseline {
		out.Baseline[k] = v
	}
	for k, v := range p.Fallbacks {
		out.Fallbacks[k] = append([]ModelSelection(nil), v...)
	}
	return out
}
