// Package metrics provides Prometheus metrics for the card intelligence
// backend. Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcg_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tcg_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Recognition Metrics
	RecognitionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcg_recognition_requests_total",
			Help: "Total card recognition requests by path and outcome",
		},
		[]string{"path", "result"}, // path: "local" or "remote", result: "matched", "no_match", "decode_error", "error"
	)

	RecognitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tcg_recognition_duration_seconds",
			Help:    "End-to-end card recognition latency",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"path"},
	)

	// OCR Metrics
	OCRRegionPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcg_ocr_region_passes_total",
			Help: "OCR sub-region passes by region and outcome",
		},
		[]string{"region", "result"}, // result: "success" or "error"
	)

	// Retrieval Metrics
	RetrievalStrategyHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcg_retrieval_strategy_hits_total",
			Help: "Candidates contributed by each retrieval strategy",
		},
		[]string{"strategy"}, // "number", "name", "color", "popularity"
	)

	// Remote Classifier Metrics
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcg_remote_classifier_calls_total",
			Help: "Remote similarity service calls by outcome",
		},
		[]string{"result"}, // "success", "cache_hit", "timeout", "bad_status", "malformed", "error"
	)

	// Catalog Metrics
	CardDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tcg_card_database_size",
			Help: "Number of unique cards in the catalog",
		},
	)

	PriceObservationsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tcg_price_observations_total",
			Help: "Number of market price observations stored",
		},
	)
)
