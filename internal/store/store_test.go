// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/models"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCredentialStoreRoundTripEncrypted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	enc, err := config.NewTokenEncryptor("store-test-secret-that-is-long-enough")
	if err != nil {
		t.Fatal(err)
	}
	s := NewCredentialStore(db, enc)
	ctx := context.Background()

	expires := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cred := &models.Credential{
		UserID:       "alice",
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    &expires,
		Enabled:      true,
		SyncInterval: "0 */6 * * *",
	}
	if err := s.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "access-123" || got.RefreshToken != "refresh-456" {
		t.Errorf("tokens = %q/%q, want decrypted values", got.AccessToken, got.RefreshToken)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	// Raw value on disk must not contain the plaintext token.
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credentialKey("alice"))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if bytes.Contains(raw, []byte("access-123")) {
			return errors.New("plaintext access token stored")
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func TestCredentialStoreNotFoundAndDelete(t *testing.T) {
	t.Parallel()

	s := NewCredentialStore(newTestDB(t), nil)
	ctx := context.Background()

	if _, err := s.Get(ctx, "ghost"); !errors.Is(err, models.ErrCredentialNotFound) {
		t.Errorf("Get(ghost) error = %v, want ErrCredentialNotFound", err)
	}
	if err := s.Delete(ctx, "ghost"); !errors.Is(err, models.ErrCredentialNotFound) {
		t.Errorf("Delete(ghost) error = %v, want ErrCredentialNotFound", err)
	}

	if err := s.Save(ctx, &models.Credential{UserID: "bob", AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "bob"); err != nil {
		t.Fatalf("Delete(bob) error = %v", err)
	}
	if _, err := s.Get(ctx, "bob"); !errors.Is(err, models.ErrCredentialNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrCredentialNotFound", err)
	}
}

func TestCredentialStoreListEnabled(t *testing.T) {
	t.Parallel()

	s := NewCredentialStore(newTestDB(t), nil)
	ctx := context.Background()

	for _, c := range []*models.Credential{
		{UserID: "a", AccessToken: "ta", Enabled: true},
		{UserID: "b", AccessToken: "tb", Enabled: false},
		{UserID: "c", AccessToken: "tc", Enabled: true},
	} {
		if err := s.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	creds, err := s.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled() error = %v", err)
	}
	if len(creds) != 2 || creds[0].UserID != "a" || creds[1].UserID != "c" {
		t.Errorf("ListEnabled() = %v, want users a and c", creds)
	}
}

func TestCredentialStoreUpdateCheckpoint(t *testing.T) {
	t.Parallel()

	s := NewCredentialStore(newTestDB(t), nil)
	ctx := context.Background()

	if err := s.UpdateCheckpoint(ctx, "nobody", time.Now()); !errors.Is(err, models.ErrCredentialNotFound) {
		t.Errorf("UpdateCheckpoint(nobody) error = %v, want ErrCredentialNotFound", err)
	}

	if err := s.Save(ctx, &models.Credential{UserID: "dana", AccessToken: "tok", RefreshToken: "ref"}); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := s.UpdateCheckpoint(ctx, "dana", at); err != nil {
		t.Fatalf("UpdateCheckpoint() error = %v", err)
	}

	got, err := s.Get(ctx, "dana")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastSyncAt == nil || !got.LastSyncAt.Equal(at) {
		t.Errorf("LastSyncAt = %v, want %v", got.LastSyncAt, at)
	}
	if got.AccessToken != "tok" || got.RefreshToken != "ref" {
		t.Error("UpdateCheckpoint must preserve tokens")
	}
}

func TestDedupLedgerRecordOnce(t *testing.T) {
	t.Parallel()

	l := NewDedupLedger(newTestDB(t))
	ctx := context.Background()
	watched := time.Date(2024, 1, 15, 20, 30, 0, 0, time.UTC)

	exists, err := l.Exists(ctx, "alice", "episode:123", watched)
	if err != nil || exists {
		t.Fatalf("Exists() before record = %v, %v", exists, err)
	}

	rec := &models.DedupRecord{UserID: "alice", ItemIdentity: "episode:123", MediaType: "episode",
		WatchedAt: watched, SyncedAt: time.Now(), TaskID: "task-1"}
	created, err := l.Record(ctx, rec)
	if err != nil || !created {
		t.Fatalf("Record() = %v, %v, want created", created, err)
	}
	created, err = l.Record(ctx, rec)
	if err != nil || created {
		t.Fatalf("second Record() = %v, %v, want not created", created, err)
	}

	exists, _ = l.Exists(ctx, "alice", "episode:123", watched)
	if !exists {
		t.Error("Exists() after record = false")
	}

	// Same item watched again is a separate event.
	exists, _ = l.Exists(ctx, "alice", "episode:123", watched.Add(time.Hour))
	if exists {
		t.Error("different watched_at must not be deduplicated")
	}
	// Other users are isolated.
	exists, _ = l.Exists(ctx, "bob", "episode:123", watched)
	if exists {
		t.Error("record leaked to another user")
	}

	if n, _ := l.Count(ctx, "alice"); n != 1 {
		t.Errorf("Count(alice) = %d, want 1", n)
	}
}

func TestDedupLedgerUserPrefixIsolation(t *testing.T) {
	t.Parallel()

	l := NewDedupLedger(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	// "a" must not see records of "a:b" through a prefix scan.
	for _, user := range []string{"a", "a:b"} {
		if _, err := l.Record(ctx, &models.DedupRecord{UserID: user, ItemIdentity: "episode:1", WatchedAt: now, SyncedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	if n, _ := l.Count(ctx, "a"); n != 1 {
		t.Errorf("Count(a) = %d, want 1", n)
	}
}

func TestDedupLedgerHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	l := NewDedupLedger(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := &models.DedupRecord{
			UserID:       "alice",
			ItemIdentity: fmt.Sprintf("episode:%d", i),
			WatchedAt:    base,
			SyncedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := l.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := l.History(ctx, "alice", 3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("History() len = %d, want 3", len(recs))
	}
	if recs[0].ItemIdentity != "episode:4" || recs[2].ItemIdentity != "episode:2" {
		t.Errorf("History() order = %s..%s, want episode:4..episode:2", recs[0].ItemIdentity, recs[2].ItemIdentity)
	}
}

func TestDedupLedgerConcurrentUsers(t *testing.T) {
	t.Parallel()

	l := NewDedupLedger(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for u := 0; u < 3; u++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				rec := &models.DedupRecord{UserID: user, ItemIdentity: fmt.Sprintf("episode:%d", i), WatchedAt: now, SyncedAt: now}
				if _, err := l.Record(ctx, rec); err != nil {
					t.Errorf("Record(%s) error = %v", user, err)
				}
			}
		}(fmt.Sprintf("user%d", u))
	}
	wg.Wait()

	for u := 0; u < 3; u++ {
		if n, _ := l.Count(ctx, fmt.Sprintf("user%d", u)); n != 20 {
			t.Errorf("Count(user%d) = %d, want 20", u, n)
		}
	}
}

func TestStateStoreTakeOnce(t *testing.T) {
	t.Parallel()

	s := NewStateStore(newTestDB(t))
	ctx := context.Background()

	if err := s.Save(ctx, "state-abc", "alice", time.Minute); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	val, ok, err := s.Take(ctx, "state-abc")
	if err != nil || !ok || val != "alice" {
		t.Fatalf("Take() = %q, %v, %v; want alice", val, ok, err)
	}

	_, ok, err = s.Take(ctx, "state-abc")
	if err != nil || ok {
		t.Errorf("second Take() ok = %v, err = %v; want not found", ok, err)
	}

	if err := s.Save(ctx, "bad", "x", 0); err == nil {
		t.Error("Save() with zero ttl should fail")
	}
}

func TestStateStoreExpires(t *testing.T) {
	t.Parallel()

	s := NewStateStore(newTestDB(t))
	ctx := context.Background()

	if err := s.Save(ctx, "short", "bob", time.Second); err != nil {
		t.Fatal(err)
	}
	// Badger expiry has one-second resolution.
	time.Sleep(2100 * time.Millisecond)

	if _, ok, err := s.Take(ctx, "short"); err != nil || ok {
		t.Errorf("Take() after ttl ok = %v, err = %v; want expired", ok, err)
	}
}
