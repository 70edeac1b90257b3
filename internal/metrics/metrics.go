// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foryou_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foryou_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foryou_recommend_duration_seconds",
			Help:    "Time to produce one recommendation page",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"},
	)

	RecommendCandidatePool = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foryou_recommend_candidate_pool_size",
			Help:    "Number of candidates gathered per request before filtering",
			Buckets: []float64{0, 10, 25, 50, 100, 200, 500, 1000},
		},
	)

	RecommendDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foryou_recommend_degraded_total",
			Help: "Requests answered with an empty page because the history store failed",
		},
	)

	RankingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foryou_ranking_cache_hits_total",
			Help: "Similarity ranking cache hits",
		},
	)

	RankingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foryou_ranking_cache_misses_total",
			Help: "Similarity ranking cache misses",
		},
	)

	// Corpus Metrics
	CorpusVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foryou_corpus_version",
			Help: "Version stamp of the artifact set currently served",
		},
	)

	CorpusTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foryou_corpus_titles",
			Help: "Number of titles in the corpus currently served",
		},
	)

	CorpusReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_corpus_reloads_total",
			Help: "Corpus reload attempts by result",
		},
		[]string{"result"}, // "swapped", "unchanged", "failed"
	)

	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foryou_build_duration_seconds",
			Help:    "Corpus build duration",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// History Metrics
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_history_writes_total",
			Help: "Watch-history writes by operation and outcome",
		},
		[]string{"op", "result"}, // op: record_view, insert_if_absent; result: written, skipped, error
	)

	// Event bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_events_published_total",
			Help: "View events published to the event bus",
		},
		[]string{"source"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_events_consumed_total",
			Help: "View events consumed from the event bus by outcome",
		},
		[]string{"result"}, // "applied", "invalid", "error"
	)

	// Sync Metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_sync_runs_total",
			Help: "Trakt sync runs by result",
		},
		[]string{"result"},
	)

	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_sync_items_total",
			Help: "Items fetched from Trakt by kind",
		},
		[]string{"kind"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foryou_sync_duration_seconds",
			Help:    "Trakt sync duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foryou_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful Trakt sync",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foryou_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foryou_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records latency and pool size for one request.
func RecordRecommendation(kind string, pool int, duration time.Duration) {
	RecommendDuration.WithLabelValues(kind).Observe(duration.Seconds())
	RecommendCandidatePool.Observe(float64(pool))
}

// RecordCorpus publishes the served corpus version and size.
func RecordCorpus(version int64, titles int) {
	CorpusVersion.Set(float64(version))
	CorpusTitles.Set(float64(titles))
}

// RecordHistoryWrite counts a history write. written=false with err=nil
// means the write was a no-op (older timestamp or existing row).
func RecordHistoryWrite(op string, written bool, err error) {
	result := "written"
	switch {
	case err != nil:
		result = "error"
	case !written:
		result = "skipped"
	}
	HistoryWrites.WithLabelValues(op, result).Inc()
}

// RecordSync records one Trakt sync run. result is "success", "error" or
// "circuit_open".
func RecordSync(duration time.Duration, result string) {
	SyncDuration.Observe(duration.Seconds())
	SyncRuns.WithLabelValues(result).Inc()
	if result == "success" {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}
