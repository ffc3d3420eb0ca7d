// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/traktsync/internal/models"
	"github.com/tomtom215/traktsync/internal/store"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeHistory struct {
	mu     sync.Mutex
	items  []models.HistoryItem
	err    error
	starts []*time.Time
}

func (f *fakeHistory) FetchAllHistory(_ context.Context, startDate *time.Time, _ int) ([]models.HistoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, startDate)
	return append([]models.HistoryItem(nil), f.items...), f.err
}

func (f *fakeHistory) lastStart() *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts[len(f.starts)-1]
}

type fakeConnector struct {
	mu      sync.Mutex
	tokens  []string
	connect func(token string) (HistoryClient, error)
}

func (f *fakeConnector) Connect(_ context.Context, token string) (HistoryClient, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f.connect(token)
}

func connectTo(h *fakeHistory) *fakeConnector {
	return &fakeConnector{connect: func(string) (HistoryClient, error) { return h, nil }}
}

type fakeForwarder struct {
	mu         sync.Mutex
	items      []*models.CanonicalItem
	failTitles map[string]bool
	delay      time.Duration
}

func (f *fakeForwarder) SubmitAsync(_ context.Context, item *models.CanonicalItem) (string, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTitles[item.Title] {
		return "", context.DeadlineExceeded
	}
	f.items = append(f.items, item)
	return "task-" + item.Title, nil
}

func (f *fakeForwarder) submitted() []*models.CanonicalItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.CanonicalItem(nil), f.items...)
}

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	refresh func(userID string) bool
}

func (f *fakeRefresher) Refresh(_ context.Context, userID string) bool {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.refresh == nil {
		return false
	}
	return f.refresh(userID)
}

// harness wires an orchestrator over an in-memory Badger store.
type harness struct {
	creds     *store.CredentialStore
	ledger    *store.DedupLedger
	forwarder *fakeForwarder
	refresher *fakeRefresher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &harness{
		creds:     store.NewCredentialStore(db, nil),
		ledger:    store.NewDedupLedger(db),
		forwarder: &fakeForwarder{},
		refresher: &fakeRefresher{},
	}
}

func (h *harness) orchestrator(connector Connector) *Orchestrator {
	o := NewOrchestrator(h.creds, h.refresher, connector, h.forwarder, h.ledger, Options{
		CheckpointBuffer: 24 * time.Hour,
		MaxPages:         10,
	})
	o.now = func() time.Time { return testNow }
	return o
}

func (h *harness) saveCredential(t *testing.T, cred *models.Credential) {
	t.Helper()
	if cred.ExpiresAt == nil {
		expires := testNow.Add(24 * time.Hour)
		cred.ExpiresAt = &expires
	}
	if err := h.creds.Save(context.Background(), cred); err != nil {
		t.Fatalf("save credential: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func episode(id int64, watchedAt time.Time, title string, season, number int) models.HistoryItem {
	return models.HistoryItem{
		ID:        id,
		WatchedAt: watchedAt,
		Action:    "watch",
		Type:      models.MediaTypeEpisode,
		Episode:   &models.Episode{Season: intPtr(season), Number: intPtr(number), IDs: models.IDs{Trakt: id}},
		Show:      &models.Show{Title: title},
	}
}

func movie(id int64, watchedAt time.Time, title string) models.HistoryItem {
	return models.HistoryItem{
		ID:        id,
		WatchedAt: watchedAt,
		Action:    "watch",
		Type:      models.MediaTypeMovie,
		Movie:     &models.Movie{Title: title},
	}
}

func assertCounts(t *testing.T, r *models.SyncResult, synced, skipped, errored int) {
	t.Helper()
	if r.SyncedCount != synced || r.SkippedCount != skipped || r.ErrorCount != errored {
		t.Errorf("counts synced/skipped/error = %d/%d/%d, want %d/%d/%d (message %q)",
			r.SyncedCount, r.SkippedCount, r.ErrorCount, synced, skipped, errored, r.Message)
	}
}
