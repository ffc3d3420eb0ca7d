// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package auth manages Trakt OAuth credentials and API caller identity.

OAuth Flow:

 1. InitOAuth stores a random state (32 bytes, base64url) mapped to the user
    id with a short TTL and returns the Trakt authorization URL.
 2. Trakt redirects the browser back with code and state.
 3. HandleCallback consumes the state exactly once, exchanges the code at
    the token endpoint and saves the resulting credential.
 4. Refresh exchanges the refresh token when the access token has expired.
    Concurrent refreshes for one user share a single token request.

Token lifetimes are stored pessimistically: expires_at is set 60 seconds
before the expiry Trakt reports.

API Identity:

JWTManager validates HS256 bearer tokens for the HTTP API. The subject
claim is the user id.
*/
package auth
