// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package validation wraps go-playground/validator with the tags this
// service needs.
//
// A process-wide validator is created lazily and registers:
//   - cron: a five-field cron expression accepted by the job scheduler
//
// Field names in errors follow the json tag, falling back to the koanf tag,
// so messages match what API clients and config files actually use.
//
//	type UpdateConfigRequest struct {
//	    SyncInterval *string `json:"sync_interval" validate:"omitempty,cron"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
//	}
package validation
