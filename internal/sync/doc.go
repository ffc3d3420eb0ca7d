// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

/*
Package sync pulls Trakt watch history and forwards new episodes to the
downstream sync service.

Orchestrator.SyncUser runs one user's sync as a sequence of terminal
checks followed by per-item processing:

 1. Load the credential ("credential not found").
 2. Require an access token ("not authorized"); refresh an expired one
    ("token expired and refresh failed").
 3. Build and verify a Trakt client ("client creation failed").
 4. Fetch history. Incremental runs start at the last checkpoint minus
    the checkpoint buffer (one day by default); full runs send no start
    date. An empty fetch ends the run with "no new history".
 5. For each item in page order: drop movies (skipped), skip items already
    in the dedup ledger, convert (incomplete items are skipped), forward,
    then record the item in the ledger.
 6. Mark the run successful and advance the checkpoint to now.

Terminal failures produce a result with error_count 1. Item failures are
counted and never abort the batch. Items that failed to forward are not
recorded, so the next run retries them.

TaskRunner runs manual syncs in the background and keeps recent results
in an LRU cache keyed by task id.
*/
package sync
