// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package store persists sync state in BadgerDB.
//
// One database holds three keyspaces:
//
//	credential:<user>                          Trakt OAuth credential (tokens encrypted)
//	dedup:<user>:<identity>:<watched_at_ms>    forwarded-item markers
//	oauth_state:<state>                        pending authorization states (native TTL)
//
// User ids are query-escaped inside keys so that prefix scans for one user
// never match another user's records.
package store
