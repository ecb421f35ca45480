package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookrec_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	// RecommendOutcomes counts recommend responses by status (success, fallback, error).
	RecommendOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_recommend_outcomes_total",
		Help: "Recommendation responses by status",
	}, []string{"status"})

	// TranslationOutcomes counts normalizer results (translated, fell_back, cached).
	TranslationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookrec_translation_outcomes_total",
		Help: "Query normalization outcomes",
	}, []string{"outcome"})

	TranslationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookrec_translation_duration_seconds",
		Help:    "Duration of translation provider calls in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookrec_scoring_duration_seconds",
		Help:    "Duration of the similarity pass over the corpus in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bookrec_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	CorpusRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookrec_corpus_records",
		Help: "Number of records in the loaded corpus",
	})
)
