// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"net/http"
)

// Jobs lists every scheduled job keyed by job id.
//
// GET /api/v1/trakt/jobs
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.scheduler.GetAllJobsStatus())
}

// PauseJob pauses the calling user's job.
//
// POST /api/v1/trakt/jobs/pause
func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.changeJob(w, r, h.scheduler.PauseUserJob)
}

// ResumeJob resumes the calling user's job.
//
// POST /api/v1/trakt/jobs/resume
func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.changeJob(w, r, h.scheduler.ResumeUserJob)
}

func (h *Handler) changeJob(w http.ResponseWriter, r *http.Request, change func(userID string) bool) {
	userID := userIDFromRequest(r)
	if !change(userID) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "no sync job for user", nil)
		return
	}
	status, _ := h.scheduler.GetUserJobStatus(userID)
	respondSuccess(w, http.StatusOK, status)
}
