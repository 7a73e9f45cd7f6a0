// Package metrics exposes Prometheus instrumentation for the quoting pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InferenceRequests counts calls to external inference capabilities.
	// Labels: capability (classification, question_answering), result (success, error)
	InferenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quoter",
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Total number of external inference requests by capability and result",
		},
		[]string{"capability", "result"},
	)

	// InferenceDuration tracks inference latency including retries.
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quoter",
			Subsystem: "inference",
			Name:      "request_duration_seconds",
			Help:      "Duration of external inference requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"capability"},
	)

	// Fallbacks counts how often a tier of a fallback chain produced the result.
	// Labels: component (detector, resolver), tier (strategy name)
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quoter",
			Name:      "fallbacks_total",
			Help:      "Total number of results produced by a fallback tier",
		},
		[]string{"component", "tier"},
	)

	// QuotesGenerated counts assembled quotes.
	QuotesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quoter",
			Name:      "quotes_generated_total",
			Help:      "Total number of quotes assembled",
		},
	)

	// QuoteTotalPrice tracks the distribution of quote grand totals.
	QuoteTotalPrice = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "quoter",
			Name:      "quote_total_price",
			Help:      "Grand total of assembled quotes, tax inclusive",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 10),
		},
	)
)

// ObserveInference records one inference call.
func ObserveInference(capability string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	InferenceRequests.WithLabelValues(capability, result).Inc()
	InferenceDuration.WithLabelValues(capability).Observe(duration.Seconds())
}

// ObserveQuote records one assembled quote.
func ObserveQuote(totalPrice float64) {
	QuotesGenerated.Inc()
	QuoteTotalPrice.Observe(totalPrice)
}
