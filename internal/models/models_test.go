// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestCredentialIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"absent expiry", nil, true},
		{"expired an hour ago", at(-time.Hour), true},
		{"expired a day ago", at(-24 * time.Hour), true},
		{"expired a minute ago", at(-time.Minute), true},
		{"expired 59s ago", at(-59 * time.Second), true},
		{"expired 30s ago", at(-30 * time.Second), true},
		{"expired 1ns ago", at(-time.Nanosecond), true},
		{"expires now", at(0), false},
		{"expires in 30s", at(30 * time.Second), false},
		{"expires in an hour", at(time.Hour), false},
		{"expires in thirty days", at(30 * 24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &Credential{AccessToken: "token", ExpiresAt: tt.expiresAt}
			if got := c.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialInterval(t *testing.T) {
	t.Parallel()

	c := &Credential{}
	if got := c.Interval(); got != DefaultSyncInterval {
		t.Errorf("Interval() = %q, want default %q", got, DefaultSyncInterval)
	}

	c.SyncInterval = "*/30 * * * *"
	if got := c.Interval(); got != "*/30 * * * *" {
		t.Errorf("Interval() = %q, want */30 * * * *", got)
	}
}

func TestHistoryItemDecode(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": 123,
		"watched_at": "2024-01-15T20:30:00.000Z",
		"action": "watch",
		"type": "episode",
		"episode": {"season": 0, "number": 5, "title": "Pilot", "ids": {"trakt": 456}},
		"show": {"title": "Example Show", "original_title": "Ejemplo", "ids": {"trakt": 789}}
	}`

	var item HistoryItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := time.Date(2024, 1, 15, 20, 30, 0, 0, time.UTC)
	if !item.WatchedAt.Equal(want) {
		t.Errorf("WatchedAt = %v, want %v", item.WatchedAt, want)
	}
	if !item.IsEpisode() {
		t.Error("expected episode type")
	}
	if got := item.Identity(); got != "episode:123" {
		t.Errorf("Identity() = %q, want episode:123", got)
	}
	if item.Episode == nil || item.Episode.Season == nil || *item.Episode.Season != 0 {
		t.Error("expected season 0 to be present")
	}
	if item.Show == nil || item.Show.OriginalTitle != "Ejemplo" {
		t.Errorf("Show = %+v, want original title Ejemplo", item.Show)
	}
}

func TestSyncResultTotal(t *testing.T) {
	t.Parallel()

	r := SyncResult{SyncedCount: 3, ErrorCount: 1, SkippedCount: 2}
	if got := r.Total(); got != 6 {
		t.Errorf("Total() = %d, want 6", got)
	}
}
