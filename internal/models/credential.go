// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package models

import (
	"errors"
	"time"
)

// TokenExpiryBuffer is subtracted from expires_in when a token is issued, so
// a stored expiry already falls 60s before Trakt's.
const TokenExpiryBuffer = 60 * time.Second

// DefaultSyncInterval is the cron expression used when a user has none or
// supplied an invalid one. Every six hours on the hour.
const DefaultSyncInterval = "0 */6 * * *"

// ErrCredentialNotFound is returned by credential stores when a user has no
// stored Trakt credential.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential holds a user's Trakt OAuth tokens together with the schedule
// and checkpoint the sync engine needs.
//
// Tokens are stored encrypted at rest by the store; values held in memory
// are always plaintext.
type Credential struct {
	UserID       string     `json:"user_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Enabled      bool       `json:"enabled"`
	SyncInterval string     `json:"sync_interval"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsExpired reports whether the access token must be refreshed before use:
// the expiry is absent or strictly before now.
func (c *Credential) IsExpired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Before(now)
}

// HasAccessToken reports whether an access token is present.
func (c *Credential) HasAccessToken() bool {
	return c.AccessToken != ""
}

// Interval returns the configured cron expression or the default.
func (c *Credential) Interval() string {
	if c.SyncInterval == "" {
		return DefaultSyncInterval
	}
	return c.SyncInterval
}
