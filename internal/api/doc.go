// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package api exposes the Trakt sync engine over HTTP using the chi router.

Routes live under /api/v1/trakt and cover the OAuth flow, per-user sync
configuration, manual and background syncs, the dedup ledger history and
the per-user cron jobs. Every JSON response uses the models.APIResponse
envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-28T12:00:00Z"}
	}

The calling user is resolved by the authentication middleware. With
security.auth_mode=none every request acts as security.default_user; with
jwt the HS256 bearer token's subject claim is the user id.

The OAuth callback is the only /trakt route outside the authentication
group. It is reached by the browser redirect from Trakt and is bound to a
user through the one-time state value.

Middleware stack, outermost first: request id with logging context, real
IP, panic recovery, CORS (go-chi/cors), per-IP rate limiting
(go-chi/httprate) and Prometheus request metrics.
*/
package api
