// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package trakt

import (
	"context"
	"fmt"
)

// ClientFactory builds per-user clients sharing one set of options.
type ClientFactory struct {
	opts Options
}

// NewClientFactory creates a factory.
func NewClientFactory(opts Options) *ClientFactory {
	return &ClientFactory{opts: opts}
}

// NewClient returns an unverified client for accessToken.
func (f *ClientFactory) NewClient(accessToken string) *Client {
	return NewClient(accessToken, f.opts)
}

// Connect returns a client for accessToken after a successful profile check.
// The client is discarded when the check fails.
func (f *ClientFactory) Connect(ctx context.Context, accessToken string) (*Client, error) {
	c := f.NewClient(accessToken)
	if _, err := c.GetUserProfile(ctx); err != nil {
		return nil, fmt.Errorf("trakt connection test failed: %w", err)
	}
	return c, nil
}
