// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/traktsync/internal/validation"
)

// minSecretLength applies to the JWT secret and the token encryption secret.
const minSecretLength = 32

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("sync.timezone %q: %w", c.Sync.Timezone, err)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store.path is required unless store.in_memory is set")
	}
	if c.Store.EncryptionSecret != "" && len(c.Store.EncryptionSecret) < minSecretLength {
		return fmt.Errorf("store.encryption_secret must be at least %d characters", minSecretLength)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AuthMode == "jwt" && len(c.Security.JWTSecret) < minSecretLength {
		return fmt.Errorf("security.jwt_secret must be at least %d characters when auth_mode is jwt", minSecretLength)
	}
	return nil
}

// Location returns the timezone cron expressions are evaluated in.
// Validate guarantees it loads; UTC is returned otherwise.
func (s *SyncConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
