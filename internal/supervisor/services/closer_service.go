// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package services

import "context"

// Closer is a component whose background work ends with Close.
type Closer interface {
	Close()
}

// CloserService keeps a component alive for the lifetime of the tree and
// closes it on shutdown.
type CloserService struct {
	closer Closer
	name   string
}

// NewCloserService wraps closer under name.
func NewCloserService(name string, closer Closer) *CloserService {
	return &CloserService{closer: closer, name: name}
}

// Serve implements suture.Service.
func (c *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()
	c.closer.Close()
	return ctx.Err()
}

func (c *CloserService) String() string {
	return c.name
}
