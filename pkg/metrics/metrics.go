package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// PagesFetchedTotal counts page fetches by outcome (success, empty, failure).
	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Total number of page fetches.",
		},
		[]string{"status", "error_type"},
	)

	PageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_page_fetch_duration_seconds",
			Help:    "Duration of single page fetches.",
			Buckets: []float64{1, 2, 5, 10, 15, 30, 60},
		},
	)

	// AnalysisRunsTotal counts runs by their terminal phase (completed, error).
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of analysis runs.",
		},
		[]string{"phase"},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_phase_duration_seconds",
			Help:    "Duration of each analysis phase.",
			Buckets: []float64{0.1, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"phase"},
	)

	ExtractionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_requests_total",
			Help: "Total number of calls to the extraction service.",
		},
		[]string{"status"},
	)
)
