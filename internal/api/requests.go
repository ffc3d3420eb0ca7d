// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"time"

	"github.com/tomtom215/traktsync/internal/models"
)

// UpdateConfigRequest is the body of PUT /config. Absent fields are left
// unchanged.
type UpdateConfigRequest struct {
	Enabled      *bool   `json:"enabled"`
	SyncInterval *string `json:"sync_interval" validate:"omitempty,cron"`
}

// ManualSyncRequest is the body of POST /sync/manual.
type ManualSyncRequest struct {
	FullSync bool `json:"full_sync"`
}

// ConfigResponse describes a user's Trakt connection and schedule.
type ConfigResponse struct {
	UserID         string     `json:"user_id"`
	Enabled        bool       `json:"enabled"`
	SyncInterval   string     `json:"sync_interval"`
	LastSyncTime   *time.Time `json:"last_sync_time"`
	IsConnected    bool       `json:"is_connected"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
}

// SyncStatusResponse summarises a user's sync state.
//
// SuccessCount is the number of items in the dedup ledger; ErrorCount is
// the failed item count of the latest run.
type SyncStatusResponse struct {
	LastSyncTime *time.Time `json:"last_sync_time"`
	NextSyncTime *time.Time `json:"next_sync_time"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	TotalCount   int        `json:"total_count"`
	IsRunning    bool       `json:"is_running"`
}

// ManualSyncResponse is returned when a manual sync is accepted.
type ManualSyncResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// TaskStatusResponse is returned for a task that has not finished.
type TaskStatusResponse struct {
	TaskID string `json:"task_id"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// HistoryResponse lists forwarded items, newest first.
type HistoryResponse struct {
	UserID  string               `json:"user_id"`
	Total   int                  `json:"total"`
	Records []models.DedupRecord `json:"records"`
}
