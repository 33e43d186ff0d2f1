// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisense_analyses_total",
			Help: "Prototype analyses by outcome",
		},
		[]string{"outcome"},
	)
	neighborQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisense_neighbor_queries_total",
			Help: "Single-prototype neighbour queries by prototype and outcome",
		},
		[]string{"prototype", "outcome"},
	)
	hashRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multisense_hash_requests_total",
			Help: "Strings hashed through the API",
		},
	)
	cleanedLines = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multisense_cleaned_lines_total",
			Help: "Corpus lines written by the cleaner",
		},
	)
	cleanedFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisense_cleaned_files_total",
			Help: "Corpus files processed by status",
		},
		[]string{"status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multisense_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(analyses, neighborQueries, hashRequests)
	prometheus.MustRegister(cleanedLines, cleanedFiles)
	prometheus.MustRegister(httpDuration)
}

// ObserveAnalysis counts one analysis.
func ObserveAnalysis(outcome string) { analyses.WithLabelValues(outcome).Inc() }

// ObserveNeighbors counts one neighbour query.
func ObserveNeighbors(prototype, outcome string) {
	neighborQueries.WithLabelValues(prototype, outcome).Inc()
}

// ObserveHash counts hashed strings.
func ObserveHash(n int) { hashRequests.Add(float64(n)) }

// ObserveCleanedLines counts cleaned output lines.
func ObserveCleanedLines(n int64) { cleanedLines.Add(float64(n)) }

// ObserveCleanedFile counts one processed corpus file.
func ObserveCleanedFile(status string) { cleanedFiles.WithLabelValues(status).Inc() }

// ObserveHTTP records one served request.
func ObserveHTTP(route, method, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}
