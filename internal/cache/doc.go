// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package cache provides in-memory caches used by the sync engine.
//
// LRU holds the results of background sync tasks so clients can poll them
// after the task has finished.
package cache
