// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package services adapts the long-running components of the sync engine to
suture.Service:

  - HTTPServerService: ListenAndServe with graceful Shutdown
  - SchedulerService: JobScheduler Start on Serve, Stop on cancellation
  - CloserService: closes a component (the background task runner) when the
    tree shuts down

Each adapter implements fmt.Stringer so suture logs a readable name.
*/
package services
