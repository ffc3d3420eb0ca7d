// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package trakt implements a rate-limited client for the Trakt.tv API.

The client is constructed per access token and is not shared between users.
Every request carries the bearer token, the trakt-api-version header and the
application's client id as trakt-api-key.

Rate limiting:

The client remembers X-RateLimit-Remaining and X-RateLimit-Reset from the last
response. Before sending a request, if the remaining budget is below the
low-water mark and the reset instant lies ahead, it sleeps until the reset plus
a small buffer. The sleep honours context cancellation.

Retries:

  - 429: wait exactly Retry-After seconds, then retry
  - 5xx and network failures: retry immediately
  - 401: return *AuthenticationError, never retried
  - other statuses: no data

Once the attempt budget is spent the call yields no data (nil, nil) rather
than an error, so callers only see errors for authentication failures and
context cancellation.

Pagination:

FetchAllHistory walks /sync/history from page 1 until a short page or the page
cap, pausing between pages with a token-bucket limiter. Pages are concatenated
in order with no deduplication; the same history id with different watched_at
values are distinct watch events.
*/
package trakt
