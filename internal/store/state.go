// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const oauthStateKeyPrefix = "oauth_state:"

// StateStore keeps short-lived OAuth authorization states. Entries expire
// through Badger's native TTL and are removed when taken.
type StateStore struct {
	db *badger.DB
}

// NewStateStore creates a state store on db.
func NewStateStore(db *badger.DB) *StateStore {
	return &StateStore{db: db}
}

// Save stores value under key for ttl.
func (s *StateStore) Save(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("state ttl must be positive, got %s", ttl)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(oauthStateKeyPrefix+key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Take returns the value stored under key and deletes it. ok is false when
// the key is unknown or has expired.
func (s *StateStore) Take(_ context.Context, key string) (value string, ok bool, err error) {
	k := []byte(oauthStateKeyPrefix + key)
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(val)
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("take oauth state: %w", err)
	}
	return value, true, nil
}
