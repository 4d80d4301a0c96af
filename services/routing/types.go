package routing

import "github.com/upb/llm-intent-router/services/providers"

// Intent is the declared purpose of a request. Unknown values are allowed and
// route to the policy default.
type Intent string

const (
	IntentCodeAnalysis        Intent = "code_analysis"
	IntentCreativeWriting     Intent = "creative_writing"
	IntentDataAnalysis        Intent = "data_analysis"
	IntentGeneralConversation Intent = "general_conversation"
	IntentTranslation         Intent = "translation"
)

// KnownIntents returns the intents covered by the baseline table
func KnownIntents() []Intent {
	return []Intent{
		IntentCodeAnalysis,
		IntentCreativeWriting,
		IntentDataAnalysis,
		IntentGeneralConversation,
		IntentTranslation,
	}
}

// Complexity is the declared difficulty of a request
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// RequestDescriptor is everything the router looks at
type RequestDescriptor struct {
	Intent     Intent     `json:"intent"`
	Complexity Complexity `json:"complexity"`
	Language   string     `json:"language,omitempty"`

	// ContentType is informational only and does not affect selection
	ContentType string `json:"content_type,omitempty"`
}

// ModelSelection is the router's decision
type ModelSelection struct {
	Model    string         `json:"model" yaml:"model"`
	Provider providers.Kind `json:"provider" yaml:"provider"`
	Reason   string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Same reports whether two selections target the same model on the same provider
func (s ModelSelection) Same(other ModelSelection) bool {
	return s.Model == other.Model && s.Provider == other.Provider
}
