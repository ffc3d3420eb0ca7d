// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package auth

import "errors"

var (
	// ErrNotConfigured is returned when the Trakt client id, secret or
	// redirect URI is missing.
	ErrNotConfigured = errors.New("trakt OAuth application is not configured")

	// ErrInvalidState is returned for unknown, expired or already used
	// OAuth states.
	ErrInvalidState = errors.New("invalid or expired OAuth state")

	// ErrNoRefreshToken is returned when an expired credential cannot be
	// refreshed and the user must authorize again.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrTokenExchange is returned when the token endpoint rejects a request.
	ErrTokenExchange = errors.New("trakt token exchange failed")
)
