// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/traktsync/internal/logging"
)

// Options configures the underlying database.
type Options struct {
	Path     string
	InMemory bool
}

// Open opens (or creates) the Badger database.
func Open(opts Options) (*badger.DB, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return db, nil
}

func userSegment(userID string) string {
	return url.QueryEscape(userID)
}

// GarbageCollector periodically reclaims space in the value log.
// It implements suture.Service.
type GarbageCollector struct {
	db           *badger.DB
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
}

// NewGarbageCollector creates a collector running every interval.
func NewGarbageCollector(db *badger.DB, interval time.Duration) *GarbageCollector {
	return &GarbageCollector{
		db:           db,
		interval:     interval,
		discardRatio: 0.5,
		logger:       logging.WithComponent("store_gc"),
	}
}

// Serve runs until ctx is cancelled.
func (g *GarbageCollector) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.collect()
		}
	}
}

func (g *GarbageCollector) collect() {
	rewrites := 0
	for {
		err := g.db.RunValueLogGC(g.discardRatio)
		if err == nil {
			rewrites++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
			g.logger.Warn().Err(err).Msg("Value log GC failed")
		}
		break
	}
	if rewrites > 0 {
		g.logger.Debug().Int("rewrites", rewrites).Msg("Value log GC completed")
	}
}

// String identifies the service in supervisor logs.
func (g *GarbageCollector) String() string {
	return "store-gc"
}
