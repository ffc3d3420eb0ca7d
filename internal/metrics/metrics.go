// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Trakt client metrics

	TraktRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trakt_api_requests_total",
			Help: "Total Trakt API requests by endpoint and HTTP status (0 for network errors)",
		},
		[]string{"endpoint", "status"},
	)

	TraktRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trakt_api_request_duration_seconds",
			Help:    "Trakt API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TraktRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trakt_api_retries_total",
			Help: "Trakt API retries by reason",
		},
		[]string{"reason"}, // rate_limited, server_error, network
	)

	TraktRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trakt_api_rate_limit_waits_total",
			Help: "Times the client paused because the rate budget was nearly exhausted",
		},
	)

	TraktRateLimitRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trakt_api_rate_limit_remaining",
			Help: "Last X-RateLimit-Remaining value seen",
		},
	)

	// Sync orchestration metrics

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Sync runs by result",
		},
		[]string{"result"}, // success, failure
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "History items processed by outcome",
		},
		[]string{"outcome"}, // synced, skipped, error
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync per user",
		},
		[]string{"user_id"},
	)

	// Scheduler metrics

	SchedulerJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_jobs",
			Help: "Number of registered per-user sync jobs",
		},
	)

	SchedulerExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_executions_total",
			Help: "Scheduled job executions by outcome",
		},
		[]string{"outcome"}, // completed, failed, timeout, panic, skipped
	)

	// OAuth metrics

	OAuthOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_operations_total",
			Help: "OAuth operations by kind and outcome",
		},
		[]string{"operation", "outcome"}, // init, callback, refresh, disconnect; success, failure
	)

	OAuthTokenExchangeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauth_token_exchange_duration_seconds",
			Help:    "Latency of token endpoint calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"grant_type"},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Inbound API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Inbound API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordTraktRequest records one outbound Trakt request. status is 0 for
// network-level failures.
func RecordTraktRequest(endpoint string, status int, duration time.Duration) {
	TraktRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	TraktRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordSyncRun records the outcome of one orchestration run.
func RecordSyncRun(userID string, success bool, synced, skipped, errored int, duration time.Duration) {
	SyncDuration.Observe(duration.Seconds())
	SyncItemsTotal.WithLabelValues("synced").Add(float64(synced))
	SyncItemsTotal.WithLabelValues("skipped").Add(float64(skipped))
	SyncItemsTotal.WithLabelValues("error").Add(float64(errored))

	if success {
		SyncRunsTotal.WithLabelValues("success").Inc()
		SyncLastSuccess.WithLabelValues(userID).SetToCurrentTime()
		return
	}
	SyncRunsTotal.WithLabelValues("failure").Inc()
}

// RecordAPIRequest records an inbound API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOAuth records one OAuth operation; a nil err counts as success.
func RecordOAuth(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	OAuthOperations.WithLabelValues(operation, outcome).Inc()
}
