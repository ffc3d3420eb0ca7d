// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"net/http"

	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/models"
)

// GetConfig returns the calling user's Trakt configuration. A user without
// a credential gets a disconnected view.
//
// GET /api/v1/trakt/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	cred, err := h.loadCredential(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load configuration", err)
		return
	}
	if cred == nil {
		respondSuccess(w, http.StatusOK, &ConfigResponse{
			UserID:       userID,
			SyncInterval: models.DefaultSyncInterval,
		})
		return
	}
	respondSuccess(w, http.StatusOK, h.configView(cred))
}

// UpdateConfig changes the enabled flag and/or sync interval, then
// reschedules or removes the user's job to match.
//
// PUT /api/v1/trakt/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	var req UpdateConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cred, err := h.loadCredential(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to load configuration", err)
		return
	}
	if cred == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Trakt configuration not found", nil)
		return
	}

	if req.Enabled != nil {
		cred.Enabled = *req.Enabled
	}
	if req.SyncInterval != nil {
		cred.SyncInterval = *req.SyncInterval
	}
	if err := h.creds.Save(r.Context(), cred); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to save configuration", err)
		return
	}

	logger := logging.Ctx(r.Context())
	if cred.Enabled {
		if !h.scheduler.UpdateUserJob(userID, cred.Interval()) {
			logger.Warn().Msg("Scheduler not running, job not updated")
		}
	} else {
		h.scheduler.RemoveUserJob(userID)
	}

	logger.Info().
		Bool("enabled", cred.Enabled).
		Str("interval", cred.Interval()).
		Msg("Trakt configuration updated")
	respondSuccess(w, http.StatusOK, h.configView(cred))
}

func (h *Handler) configView(cred *models.Credential) *ConfigResponse {
	return &ConfigResponse{
		UserID:         cred.UserID,
		Enabled:        cred.Enabled,
		SyncInterval:   cred.Interval(),
		LastSyncTime:   cred.LastSyncAt,
		IsConnected:    cred.HasAccessToken() && !cred.IsExpired(h.now()),
		TokenExpiresAt: cred.ExpiresAt,
	}
}
