// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

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
			Name: "homedash_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homedash_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homedash_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// ModeGuardRejections counts mutations refused because the deployment is
	// in production mode.
	ModeGuardRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_mode_guard_rejections_total",
			Help: "Mutating requests refused by the mode guard",
		},
		[]string{"endpoint"},
	)

	// Reachability Probe Metrics
	ProbeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_probe_results_total",
			Help: "Local reachability probe outcomes",
		},
		[]string{"target", "result"}, // result: "reachable", "unreachable"
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homedash_probe_duration_seconds",
			Help:    "Duration of local reachability probes",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"target"},
	)

	LocalReachable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homedash_local_reachable",
			Help: "1 when at least one local device answered the last probe",
		},
	)

	// Upstream (vendor API) Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_upstream_requests_total",
			Help: "Requests sent to vendor APIs",
		},
		[]string{"service", "outcome"}, // outcome: "ok", "error", "unavailable"
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homedash_upstream_request_duration_seconds",
			Help:    "Vendor API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	DegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_degraded_reads_total",
			Help: "Reads answered with an empty result because the upstream was unreachable",
		},
		[]string{"service"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homedash_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homedash_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Snapshot Metrics
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_snapshot_writes_total",
			Help: "Snapshot store write decisions",
		},
		[]string{"service", "result"}, // result: "written", "skipped", "error"
	)

	SnapshotReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_snapshot_reads_total",
			Help: "Reads served from the snapshot store",
		},
		[]string{"service", "result"}, // result: "hit", "miss"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "homedash_sync_duration_seconds",
			Help:    "Duration of a full snapshot refresh cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homedash_sync_last_success_timestamp",
			Help: "Unix time of the last refresh cycle without errors",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_cache_hits_total",
			Help: "In-memory response cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_cache_misses_total",
			Help: "In-memory response cache misses",
		},
		[]string{"cache"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homedash_websocket_connections",
			Help: "Current number of dashboard websocket clients",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_events_published_total",
			Help: "Events published on the internal bus",
		},
		[]string{"topic"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstream records one vendor API call.
func RecordUpstream(service, outcome string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(service, outcome).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordSyncCycle records a refresher cycle.
func RecordSyncCycle(duration time.Duration, failed int) {
	SyncDuration.Observe(duration.Seconds())
	if failed == 0 {
		SyncLastSuccess.Set(float64(time.Now().Unix()))
	}
}
