// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package models

import "time"

// SourceTrakt tags canonical items produced from Trakt history.
const SourceTrakt = "trakt"

// CanonicalItem is the downstream representation of a watched episode,
// independent of the Trakt schema.
type CanonicalItem struct {
	MediaType   string    `json:"media_type"`
	Title       string    `json:"title"`
	OriTitle    string    `json:"ori_title,omitempty"`
	Season      int       `json:"season"`
	Episode     int       `json:"episode"`
	ReleaseDate string    `json:"release_date,omitempty"`
	UserName    string    `json:"user_name"`
	Source      string    `json:"source"`
	WatchedAt   time.Time `json:"watched_at"`
}

// DedupRecord marks a history event as forwarded downstream. At most one
// record exists per (UserID, ItemIdentity, WatchedAt).
type DedupRecord struct {
	UserID       string    `json:"user_id"`
	ItemIdentity string    `json:"item_identity"`
	MediaType    string    `json:"media_type"`
	WatchedAt    time.Time `json:"watched_at"`
	SyncedAt     time.Time `json:"synced_at"`
	TaskID       string    `json:"task_id"`
}

// SyncResult is the outcome of one orchestration run. It is built once per
// run and not modified after it is returned.
type SyncResult struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	SyncedCount  int                    `json:"synced_count"`
	ErrorCount   int                    `json:"error_count"`
	SkippedCount int                    `json:"skipped_count"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// Total returns the number of items accounted for by the result.
func (r *SyncResult) Total() int {
	return r.SyncedCount + r.ErrorCount + r.SkippedCount
}

// JobStatus is a snapshot of a user's scheduled sync job.
type JobStatus struct {
	JobID       string     `json:"job_id"`
	Name        string     `json:"name"`
	UserID      string     `json:"user_id"`
	NextRunTime *time.Time `json:"next_run_time"`
	PrevRunTime *time.Time `json:"prev_run_time,omitempty"`
	Trigger     string     `json:"trigger"`
	Pending     bool       `json:"pending"`
	Paused      bool       `json:"paused"`
}
