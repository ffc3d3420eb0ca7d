// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package supervisor provides the process supervision tree built on
github.com/thejerf/suture/v4.

The tree is organised in two layers under the root "traktsync":

  - sync-layer: the job scheduler, the background task runner and the
    badger value log garbage collector
  - api-layer: the HTTP server

A failing service is restarted with suture's backoff without affecting the
other layer. Supervisor events are logged through sutureslog, which writes
into zerolog via logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(services.NewSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Service adapters live in the services subpackage.
*/
package supervisor
