package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "intent_router"

// Metrics holds the collectors for provider calls. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ProviderCalls    *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	TokensUsed       *prometheus.CounterVec
	EstimatedCost    *prometheus.CounterVec
	FallbackAttempts *prometheus.CounterVec
	RoutingDecisions *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Total number of provider calls by outcome",
			},
			[]string{"provider", "model", "status", "code"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_used_total",
				Help:      "Tokens reported by providers",
			},
			[]string{"provider", "model"},
		),
		EstimatedCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimated_cost_total",
				Help:      "Estimated spend in USD",
			},
			[]string{"provider", "model"},
		),
		FallbackAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_attempts_total",
				Help:      "Fallback attempts by outcome",
			},
			[]string{"provider", "model", "status"},
		),
		RoutingDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routing_decisions_total",
				Help:      "Router selections by intent",
			},
			[]string{"intent", "provider", "model"},
		),
	}
}

// CallLabels identifies one provider call
type CallLabels struct {
	Provider string
	Model    string
	Code     string
	Success  bool
}

func (l CallLabels) status() string {
	if l.Success {
		return "success"
	}
	return "failure"
}

// RecordCall records the outcome of one provider call
func (m *Metrics) RecordCall(labels CallLabels, latency time.Duration, tokens *int, cost *float64) {
	if m == nil {
		return
	}

	m.ProviderCalls.WithLabelValues(labels.Provider, labels.Model, labels.status(), labels.Code).Inc()
	m.ProviderLatency.WithLabelValues(labels.Provider, labels.Model).Observe(latency.Seconds())

	if tokens != nil {
		m.TokensUsed.WithLabelValues(labels.Provider, labels.Model).Add(float64(*tokens))
	}
	if cost != nil {
		m.EstimatedCost.WithLabelValues(labels.Provider, labels.Model).Add(*cost)
	}
}

// RecordFallback records one fallback attempt
func (m *Metrics) RecordFallback(provider, model string, success bool) {
	if m == nil {
		return
	}

	m.FallbackAttempts.WithLabelValues(provider, model, CallLabels{Success: success}.status()).Inc()
}

// RecordRoutingDecision records a router selection
func (m *Metrics) RecordRoutingDecision(intent, provider, model string) {
	if m == nil {
		return
	}

	m.RoutingDecisions.WithLabelValues(intent, provider, model).Inc()
}
