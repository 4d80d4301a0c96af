package routing

import "github.com/upb/llm-intent-router/services/providers"

// ModelRouter picks a model for a request descriptor. It is immutable after
// construction and safe for concurrent use.
type ModelRouter struct {
	policy Policy
}

// NewModelRouter creates a router over a copy of the given policy
func NewModelRouter(policy Policy) *ModelRouter {
	return &ModelRouter{policy: policy.clone()}
}

// NewDefaultModelRouter creates a router with the built-in tables
func NewDefaultModelRouter() *ModelRouter {
	return NewModelRouter(DefaultPolicy())
}

// SelectOptimalModel returns the selection for req. It is total: every
// descriptor, including unknown intents and empty fields, gets a selection.
func (r *ModelRouter) SelectOptimalModel(req RequestDescriptor) ModelSelection {
	// Overrides, first match wins
	switch {
	case req.Complexity == ComplexityHigh && req.Intent == IntentCodeAnalysis:
		return ModelSelection{Model: "deepseek-coder", Provider: providers.KindDeepSeek, Reason: "High complexity code task"}
	case req.Complexity == ComplexityHigh && req.Intent == IntentCreativeWriting:
		return ModelSelection{Model: "claude-3-opus", Provider: providers.KindClaude, Reason: "High complexity creative task"}
	case req.Language != "" && req.Intent == IntentCodeAnalysis:
		return ModelSelection{Model: "deepseek-coder", Provider: providers.KindDeepSeek, Reason: req.Language + " specific optimization"}
	}

	if selection, ok := r.policy.Baseline[req.Intent]; ok {
		return selection
	}

	return r.policy.Default
}

// Alternates returns the ordered fallback candidates for intent, excluding
// primary. Unknown intents use the general_conversation list.
func (r *ModelRouter) Alternates(intent Intent, primary ModelSelection) []ModelSelection {
	list, ok := r.policy.Fallbacks[intent]
	if !ok {
		list = r.policy.Fallbacks[IntentGeneralConversation]
	}

	alternates := make([]ModelSelection, 0, len(list))
	for _, candidate := range list {
		if candidate.Same(primary) {
			continue
		}
		alternates = append(alternates, candidate)
	}

	return alternates
}

// Baseline returns a copy of the intent to selection table
func (r *ModelRouter) Baseline() map[Intent]ModelSelection {
	return r.policy.clone().Baseline
}

// Fallbacks returns a copy of the intent to alternates table
func (r *ModelRouter) Fallbacks() map[Intent][]ModelSelection {
	return r.policy.clone().Fallbacks
}

// Default returns the selection used for unknown intents
func (r *ModelRouter) Default() ModelSelection {
	return r.policy.Default
}
