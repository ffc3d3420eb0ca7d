// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package main is the entry point for the Trakt Sync server.

Trakt Sync links users to their Trakt.tv accounts with OAuth, pulls their
watch history on a per-user cron schedule, and forwards unseen items to a
downstream media server import endpoint.

# Application Architecture

Long-running components run under Suture v4 supervision:

	RootSupervisor ("traktsync")
	├── SyncSupervisor ("sync-layer")
	│   ├── Scheduler (per-user cron jobs)
	│   ├── Task runner (manual syncs)
	│   └── Badger value log GC
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Store: Badger for credentials, OAuth states and the dedup ledger
 4. OAuth service, Trakt client factory and forwarder
 5. Sync orchestrator, task runner and scheduler
 6. HTTP API: Chi router with CORS, rate limiting and optional JWT auth
 7. Supervisor tree

# Configuration

Required:
  - FORWARDER_URL: downstream import endpoint

OAuth (the auth endpoints report a configuration error until set):
  - TRAKT_CLIENT_ID, TRAKT_CLIENT_SECRET, TRAKT_REDIRECT_URI

Common options:
  - STORE_PATH: Badger directory (default /data/traktsync)
  - STORE_ENCRYPTION_SECRET: encrypts OAuth tokens at rest
  - AUTH_MODE: none (default) or jwt, with JWT_SECRET
  - HTTP_PORT: listen port (default 3858)

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
scheduler stops and waits for running jobs, and the store is closed last.
*/
package main
