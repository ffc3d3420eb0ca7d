// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package trakt

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication matches any *AuthenticationError via errors.Is.
	ErrAuthentication = errors.New("trakt authentication failed")

	// ErrNoData is returned by typed helpers when the API yielded nothing
	// usable after retries.
	ErrNoData = errors.New("trakt returned no data")

	// ErrIncompleteHistory is returned together with the pages already read
	// when a history page after the first could not be retrieved.
	ErrIncompleteHistory = errors.New("trakt history incomplete")
)

// AuthenticationError reports an HTTP 401 from Trakt. The access token is
// invalid or expired and must be refreshed before a new client is built.
type AuthenticationError struct {
	Path string
	Body string
}

func (e *AuthenticationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("trakt authentication failed for %s", e.Path)
	}
	return fmt.Sprintf("trakt authentication failed for %s: %s", e.Path, e.Body)
}

// Unwrap allows errors.Is(err, ErrAuthentication).
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}
