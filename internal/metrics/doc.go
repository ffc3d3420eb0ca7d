// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package metrics defines the Prometheus metrics exported on /metrics.
//
// Metric groups:
//   - trakt_api_*: outbound Trakt requests, retries and rate-limit waits
//   - sync_*: orchestration runs and per-item outcomes
//   - scheduler_*: scheduled job executions, timeouts and panics
//   - circuit_breaker_*: downstream forwarder breaker state
//   - api_*: inbound HTTP requests
//
// All metrics are registered with the default registry via promauto.
package metrics
