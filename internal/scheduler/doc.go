// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package scheduler runs a periodic Trakt sync for every enabled user.

Each user gets one cron job, keyed "trakt_sync_<user_id>", driven by
github.com/robfig/cron/v3. Expressions are five-field cron or descriptors
such as @hourly, evaluated in the configured sync timezone. Invalid
expressions fall back to the default interval.

A run loads the user's credential, skips disabled or missing users,
refreshes an expired token and then calls the orchestrator with an
incremental sync. Runs of the same job never overlap, a run is bounded by
the configured job timeout, and a panic in one run is logged without
affecting other jobs.

Jobs can be paused (removed from the cron table while the record stays)
and resumed, triggered on demand and inspected through JobStatus.
*/
package scheduler
