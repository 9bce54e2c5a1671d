package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbridge_translation_requests_total",
			Help: "Total number of translation requests sent to a provider",
		},
		[]string{"provider", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mtbridge_translation_request_duration_seconds",
			Help:    "Duration of translation requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"provider", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mtbridge_translation_request_size_chars",
			Help:    "Length of text sent for translation, in characters",
			Buckets: []float64{10, 50, 100, 500, 1000, 2500, 5000},
		},
		[]string{"provider"},
	)

	translationCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mtbridge_translation_candidates",
			Help:    "Number of candidates returned per translation request",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"provider"},
	)

	negotiationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbridge_language_negotiations_total",
			Help: "Outcome of language pair negotiation",
		},
		[]string{"provider", "outcome"},
	)

	languageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtbridge_language_fetches_total",
			Help: "Total number of supported-language downloads",
		},
		[]string{"provider", "status"},
	)
)

// Negotiation outcomes.
const (
	outcomeExact       = "exact"
	outcomeWidened     = "widened"
	outcomeSame        = "same_language"
	outcomeUnsupported = "unsupported"
)

// MetricsCollector records provider metrics under one provider label.
type MetricsCollector struct {
	provider string
}

// NewMetricsCollector creates a collector for provider.
func NewMetricsCollector(provider string) *MetricsCollector {
	return &MetricsCollector{provider: provider}
}

// RecordTranslationRequest records one call to the provider translate endpoint.
func (mc *MetricsCollector) RecordTranslationRequest(duration time.Duration, success bool, requestSize, candidates int) {
	status := "success"
	if !success {
		status = "error"
	}

	translationRequestsTotal.WithLabelValues(mc.provider, status).Inc()
	translationRequestDuration.WithLabelValues(mc.provider, status).Observe(duration.Seconds())
	translationRequestSize.WithLabelValues(mc.provider).Observe(float64(requestSize))
	if success {
		translationCandidates.WithLabelValues(mc.provider).Observe(float64(candidates))
	}
}

// RecordNegotiation records the outcome of a language negotiation.
func (mc *MetricsCollector) RecordNegotiation(outcome string) {
	negotiationOutcomesTotal.WithLabelValues(mc.provider, outcome).Inc()
}

// RecordLanguageFetch records a supported-language download.
func (mc *MetricsCollector) RecordLanguageFetch(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	languageFetchesTotal.WithLabelValues(mc.provider, status).Inc()
}
