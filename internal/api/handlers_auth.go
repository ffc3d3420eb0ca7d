// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/tomtom215/traktsync/internal/auth"
	"github.com/tomtom215/traktsync/internal/logging"
)

// AuthInit starts the OAuth flow for the calling user.
//
// POST /api/v1/trakt/auth/init
func (h *Handler) AuthInit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	resp, err := h.oauth.InitOAuth(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			respondError(w, r, http.StatusInternalServerError, ErrCodeConfiguration, "Trakt application credentials are not configured", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to start authorization", err)
		return
	}
	respondSuccess(w, http.StatusOK, resp)
}

// AuthCallback completes the OAuth flow and redirects the browser back to
// the web UI. On success the user's sync job is scheduled.
//
// GET /api/v1/trakt/auth/callback?code=...&state=...
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	logger := logging.Ctx(r.Context())

	if code == "" {
		h.redirectAuthError(w, r, "missing authorization code")
		return
	}

	userID, err := h.oauth.HandleCallback(r.Context(), code, state)
	if err != nil {
		logger.Warn().Err(err).Msg("OAuth callback failed")
		if errors.Is(err, auth.ErrInvalidState) {
			h.redirectAuthError(w, r, "invalid or expired state")
			return
		}
		h.redirectAuthError(w, r, "authorization failed")
		return
	}

	cred, err := h.loadCredential(r.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load credential after authorization")
	} else if cred != nil && cred.Enabled {
		if !h.scheduler.AddUserJob(userID, cred.Interval()) {
			logger.Warn().Str("user_id", userID).Msg("Scheduler not running, job not created")
		}
	}

	http.Redirect(w, r, h.uiBaseURL+"/trakt/config?status=success", http.StatusTemporaryRedirect)
}

func (h *Handler) redirectAuthError(w http.ResponseWriter, r *http.Request, message string) {
	target := h.uiBaseURL + "/trakt/auth?status=error&message=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// Disconnect removes the calling user's job and credential.
//
// DELETE /api/v1/trakt/disconnect
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromRequest(r)

	h.scheduler.RemoveUserJob(userID)
	if err := h.oauth.Disconnect(r.Context(), userID); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to disconnect", err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Trakt disconnected")
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"message": "disconnected",
	})
}
