// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package forwarder submits converted watch items to the downstream sync
service.

The downstream service registers a watched item with the target media
server and answers with a task handle. Submissions are plain JSON POSTs:

	POST <forwarder.url>
	X-API-Key: <forwarder.api_key>

	{"task_id": "<uuid>", "item": {"media_type": "episode", "title": ...}}

Any 2xx response is an acceptance. A task_id in the response body replaces
the one generated locally. Every other status is reported as ErrRejected.

Circuit Breaker:

Calls go through a sony/gobreaker breaker named "sync-forwarder". It opens
when at least 60% of at least 10 requests in a one minute window fail,
stays open for two minutes, then lets three trial requests through.
State and transitions are exported as Prometheus metrics.
*/
package forwarder
