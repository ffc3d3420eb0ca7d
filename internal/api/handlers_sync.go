// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// SyncStatus reports the calling user's last and next sync and item
// counts.
//
// GET /api/v1/trakt/sync/status
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)
	status := &SyncStatusResponse{IsRunning: h.tasks.IsRunning(userID)}

	cred, err := h.loadCredential(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load configuration", err)
		return
	}
	if cred == nil {
		respondSuccess(w, http.StatusOK, status)
		return
	}

	status.LastSyncTime = cred.LastSyncAt
	if job, ok := h.scheduler.GetUserJobStatus(userID); ok {
		status.NextSyncTime = job.NextRunTime
	}

	synced, err := h.ledger.Count(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to count synced items", err)
		return
	}
	status.SuccessCount = synced
	if last, ok := h.tasks.LastResult(userID); ok {
		status.ErrorCount = last.ErrorCount
	}
	status.TotalCount = status.SuccessCount + status.ErrorCount

	respondSuccess(w, http.StatusOK, status)
}

// ManualSync starts a background sync for the calling user and returns its
// task id.
//
// POST /api/v1/trakt/sync/manual
func (h *Handler) ManualSync(w http.ResponseWriter, r *http.Request) {
	var req ManualSyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	taskID := h.tasks.StartUserSync(userIDFromRequest(r), req.FullSync)
	respondSuccess(w, http.StatusAccepted, &ManualSyncResponse{
		JobID:   taskID,
		Message: "sync task submitted",
	})
}

// TaskResult returns the result of a background sync task.
//
// GET /api/v1/trakt/sync/tasks/{taskID}
func (h *Handler) TaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if result, ok := h.tasks.Result(taskID); ok {
		respondSuccess(w, http.StatusOK, result)
		return
	}
	if userID, ok := h.tasks.ActiveTasks()[taskID]; ok {
		respondSuccess(w, http.StatusAccepted, &TaskStatusResponse{
			TaskID: taskID,
			UserID: userID,
			Status: "running",
		})
		return
	}
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "task not found", nil)
}

// SyncHistory lists the items forwarded for the calling user, newest
// first.
//
// GET /api/v1/trakt/sync/history?limit=50
func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respondValidationError(w, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit), map[string]interface{}{"limit": raw})
			return
		}
		limit = n
	}

	records, err := h.ledger.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to read sync history", err)
		return
	}
	total, err := h.ledger.Count(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to count synced items", err)
		return
	}
	respondSuccess(w, http.StatusOK, &HistoryResponse{
		UserID:  userID,
		Total:   total,
		Records: records,
	})
}
