// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/traktsync/internal/models"
)

const dedupKeyPrefix = "dedup:"

// DedupLedger records which history events have been forwarded downstream.
// Keys are partitioned by user, so concurrent runs for different users never
// touch the same keys.
type DedupLedger struct {
	db *badger.DB
}

// NewDedupLedger creates a ledger on db.
func NewDedupLedger(db *badger.DB) *DedupLedger {
	return &DedupLedger{db: db}
}

func dedupUserPrefix(userID string) []byte {
	return []byte(dedupKeyPrefix + userSegment(userID) + ":")
}

func dedupKey(userID, identity string, watchedAt time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", dedupUserPrefix(userID), identity, watchedAt.UTC().UnixMilli()))
}

// Exists reports whether (userID, identity, watchedAt) has been recorded.
func (l *DedupLedger) Exists(_ context.Context, userID, identity string, watchedAt time.Time) (bool, error) {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dedupKey(userID, identity, watchedAt))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check dedup record: %w", err)
	}
	return true, nil
}

// Record stores rec unless a record with the same key already exists.
// It reports whether a new record was written.
func (l *DedupLedger) Record(_ context.Context, rec *models.DedupRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal dedup record: %w", err)
	}

	key := dedupKey(rec.UserID, rec.ItemIdentity, rec.WatchedAt)
	created := false
	err = l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		created = true
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent transaction wrote the same key first.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record dedup entry: %w", err)
	}
	return created, nil
}

// History returns up to limit records for userID, most recently synced first.
// A limit of 0 returns everything.
func (l *DedupLedger) History(_ context.Context, userID string, limit int) ([]models.DedupRecord, error) {
	var records []models.DedupRecord

	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := dedupUserPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec models.DedupRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list dedup records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SyncedAt.After(records[j].SyncedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Count returns the number of records for userID.
func (l *DedupLedger) Count(_ context.Context, userID string) (int, error) {
	count := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := dedupUserPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count dedup records: %w", err)
	}
	return count, nil
}
