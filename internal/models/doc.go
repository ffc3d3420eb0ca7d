// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package models defines the data structures shared across the sync engine.

Model Categories:

1. Trakt Models:
  - HistoryItem: A single watch event returned by /sync/history
  - Episode, Show, Movie, IDs: Nested payloads of a history event
  - UserProfile: Response of the profile check

2. Persistence Models:
  - Credential: Per-user OAuth tokens, schedule and sync checkpoint
  - DedupRecord: Marker for an item already forwarded downstream

3. Sync Models:
  - CanonicalItem: Downstream representation of a watched episode
  - SyncResult: Outcome of one orchestration run
  - JobStatus: Snapshot of a scheduled per-user job

4. API Models:
  - APIResponse, Metadata, APIError: Standard HTTP response envelope

All models carry JSON tags and are safe to copy by value unless noted.
*/
package models
