package inference

import (
	"encoding/json"

	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services/routing"
)

// Operation is the kind of work requested for an item
type Operation string

const (
	OperationGenerate Operation = "generate"
	OperationAnalyze  Operation = "analyze"
)

// Valid reports whether o is a supported operation
func (o Operation) Valid() bool {
	return o == OperationGenerate || o == OperationAnalyze
}

// Item is one unit of work. Empty fields take the defaults applied by
// WithDefaults.
type Item struct {
	Operation      Operation          `json:"operation,omitempty" validate:"omitempty,oneof=generate analyze"`
	Prompt         string             `json:"prompt"`
	Intent         routing.Intent     `json:"intent,omitempty"`
	Complexity     routing.Complexity `json:"complexity,omitempty" validate:"omitempty,oneof=low medium high"`
	Language       string             `json:"language,omitempty"`
	EnableFallback *bool              `json:"enable_fallback,omitempty"`
}

// WithDefaults fills operation generate, intent general_conversation,
// complexity medium and fallback enabled
func (i Item) WithDefaults() Item {
	if i.Operation == "" {
		i.Operation = OperationGenerate
	}
	if i.Intent == "" {
		i.Intent = routing.IntentGeneralConversation
	}
	if i.Complexity == "" {
		i.Complexity = routing.ComplexityMedium
	}
	if i.EnableFallback == nil {
		enabled := true
		i.EnableFallback = &enabled
	}
	return i
}

// Descriptor builds the routing input. ContentType carries the operation.
func (i Item) Descriptor() routing.RequestDescriptor {
	return routing.RequestDescriptor{
		Intent:      i.Intent,
		Complexity:  i.Complexity,
		Language:    i.Language,
		ContentType: string(i.Operation),
	}
}

// Result is the response data flattened together with the request context
type Result struct {
	models.ResponseData

	Operation      Operation              `json:"operation"`
	OriginalPrompt string                 `json:"original_prompt"`
	SelectedModel  routing.ModelSelection `json:"selected_model"`
	InferenceID    string                 `json:"inference_id"`
}

// ItemError reports a failed item
type ItemError struct {
	Index   int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ItemError) Error() string {
	return e.Message
}

// Unwrap implements errors.Unwrap
func (e *ItemError) Unwrap() error {
	return e.Err
}

// ItemOutcome is one entry of a batch: either a Result or an error record
type ItemOutcome struct {
	Index  int
	Result *Result
	Error  *ItemError
}

// Success reports whether the item produced a result
func (o ItemOutcome) Success() bool {
	return o.Result != nil
}

type failedOutcome struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Index   int    `json:"item_index"`
	Success bool   `json:"success"`
}

// MarshalJSON renders the flattened result, or {"error":..., "success":false}
func (o ItemOutcome) MarshalJSON() ([]byte, error) {
	if o.Result != nil {
		return json.Marshal(o.Result)
	}

	out := failedOutcome{Index: o.Index}
	if o.Error != nil {
		out.Error = o.Error.Message
		out.Code = o.Error.Code
	}
	return json.Marshal(out)
}
