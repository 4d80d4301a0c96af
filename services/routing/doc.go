// Package routing maps a request descriptor (intent, complexity, language) to
// the model and provider that should serve it.
//
// Selection is a pure function of the descriptor and the active Policy:
//   - a few complexity and language overrides are checked first
//   - otherwise the intent's baseline entry is used
//   - unknown intents get the policy default
//
// The baseline, default and fallback tables are data and can be replaced from
// a YAML file without touching the override rules.
package routing
