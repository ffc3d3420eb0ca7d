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
	"github.com/goccy/go-json"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/models"
)

const credentialKeyPrefix = "credential:"

// CredentialStore persists Trakt credentials. Tokens are encrypted with the
// configured TokenEncryptor before they are written.
type CredentialStore struct {
	db  *badger.DB
	enc *config.TokenEncryptor
	now func() time.Time
}

// NewCredentialStore creates a store. enc may be nil to store tokens in plaintext.
func NewCredentialStore(db *badger.DB, enc *config.TokenEncryptor) *CredentialStore {
	return &CredentialStore{db: db, enc: enc, now: time.Now}
}

func credentialKey(userID string) []byte {
	return []byte(credentialKeyPrefix + userSegment(userID))
}

// Get returns the credential for userID or models.ErrCredentialNotFound.
func (s *CredentialStore) Get(_ context.Context, userID string) (*models.Credential, error) {
	var cred *models.Credential
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		cred, err = s.read(txn, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Save creates or replaces a credential.
func (s *CredentialStore) Save(_ context.Context, cred *models.Credential) error {
	if cred.UserID == "" {
		return errors.New("credential user id is required")
	}
	now := s.now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		return s.write(txn, cred)
	})
}

// UpdateCheckpoint sets LastSyncAt in a single read-modify-write transaction,
// leaving tokens written concurrently by a refresh untouched.
func (s *CredentialStore) UpdateCheckpoint(_ context.Context, userID string, at time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		cred, err := s.read(txn, userID)
		if err != nil {
			return err
		}
		at = at.UTC()
		cred.LastSyncAt = &at
		cred.UpdatedAt = s.now().UTC()
		return s.write(txn, cred)
	})
}

// ListEnabled returns every credential with Enabled set.
func (s *CredentialStore) ListEnabled(_ context.Context) ([]*models.Credential, error) {
	var creds []*models.Credential

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(credentialKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var cred models.Credential
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cred)
			}); err != nil {
				return fmt.Errorf("decode credential %s: %w", it.Item().Key(), err)
			}
			if !cred.Enabled {
				continue
			}
			if err := s.decryptTokens(&cred); err != nil {
				return err
			}
			creds = append(creds, &cred)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential, returning models.ErrCredentialNotFound if
// there was none.
func (s *CredentialStore) Delete(_ context.Context, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := credentialKey(userID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrCredentialNotFound
			}
			return fmt.Errorf("get credential: %w", err)
		}
		return txn.Delete(key)
	})
}

func (s *CredentialStore) read(txn *badger.Txn, userID string) (*models.Credential, error) {
	item, err := txn.Get(credentialKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	var cred models.Credential
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &cred)
	}); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	if err := s.decryptTokens(&cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *CredentialStore) write(txn *badger.Txn, cred *models.Credential) error {
	stored := *cred
	var err error
	if stored.AccessToken, err = s.enc.Encrypt(cred.AccessToken); err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	if stored.RefreshToken, err = s.enc.Encrypt(cred.RefreshToken); err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return txn.Set(credentialKey(cred.UserID), data)
}

func (s *CredentialStore) decryptTokens(cred *models.Credential) error {
	var err error
	if cred.AccessToken, err = s.enc.Decrypt(cred.AccessToken); err != nil {
		return fmt.Errorf("decrypt access token for %s: %w", cred.UserID, err)
	}
	if cred.RefreshToken, err = s.enc.Decrypt(cred.RefreshToken); err != nil {
		return fmt.Errorf("decrypt refresh token for %s: %w", cred.UserID, err)
	}
	return nil
}
