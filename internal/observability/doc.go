// Package observability provides structured logging and Prometheus metrics
// for the intent router.
//
// This package implements:
//   - zap logger construction from level and format settings
//   - counters and histograms for provider calls and fallbacks
//
// Every provider attempt made by the dispatch layer is recorded here.
package observability
