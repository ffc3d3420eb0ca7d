// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/traktsync/internal/models"
)

func TestConvertItemFromWire(t *testing.T) {
	t.Parallel()

	raw := `{"id":123,"type":"episode","action":"watch","watched_at":"2024-01-15T20:30:00.000Z",
		"episode":{"season":1,"number":5},"show":{"title":"Example Show"}}`

	var item models.HistoryItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatal(err)
	}

	got, err := ConvertItem(&item, "u1")
	if err != nil {
		t.Fatalf("ConvertItem() error = %v", err)
	}
	if got.Title != "Example Show" || got.Season != 1 || got.Episode != 5 {
		t.Errorf("ConvertItem() = %+v", got)
	}
	if !got.WatchedAt.Equal(time.Date(2024, 1, 15, 20, 30, 0, 0, time.UTC)) {
		t.Errorf("WatchedAt = %v", got.WatchedAt)
	}
	if item.Identity() != "episode:123" {
		t.Errorf("Identity() = %q", item.Identity())
	}
}

func TestConvertItem(t *testing.T) {
	t.Parallel()

	base := func() models.HistoryItem { return episode(9, testNow, "Show", 3, 7) }

	tests := []struct {
		name        string
		mutate      func(*models.HistoryItem)
		wantErr     bool
		wantRelease string
		wantOri     string
	}{
		{
			name: "episode air date wins",
			mutate: func(i *models.HistoryItem) {
				i.Episode.FirstAired = "2020-05-06T02:00:00.000Z"
				i.Show.FirstAired = "2019-01-01T00:00:00.000Z"
			},
			wantRelease: "2020-05-06",
		},
		{
			name:        "falls back to show air date",
			mutate:      func(i *models.HistoryItem) { i.Show.FirstAired = "2019-01-01T00:00:00.000Z" },
			wantRelease: "2019-01-01",
		},
		{
			name:   "no air dates",
			mutate: func(*models.HistoryItem) {},
		},
		{
			name:    "original title carried",
			mutate:  func(i *models.HistoryItem) { i.Show.OriginalTitle = "Originaltitel" },
			wantOri: "Originaltitel",
		},
		{
			name:    "movie rejected",
			mutate:  func(i *models.HistoryItem) { *i = movie(1, testNow, "Film") },
			wantErr: true,
		},
		{
			name:    "missing show",
			mutate:  func(i *models.HistoryItem) { i.Show = nil },
			wantErr: true,
		},
		{
			name:    "blank show title",
			mutate:  func(i *models.HistoryItem) { i.Show.Title = "  " },
			wantErr: true,
		},
		{
			name:    "missing episode",
			mutate:  func(i *models.HistoryItem) { i.Episode = nil },
			wantErr: true,
		},
		{
			name:    "missing number",
			mutate:  func(i *models.HistoryItem) { i.Episode.Number = nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := base()
			tt.mutate(&item)

			got, err := ConvertItem(&item, "u1")
			if tt.wantErr {
				if !errors.Is(err, ErrIncompleteItem) {
					t.Errorf("ConvertItem() error = %v, want ErrIncompleteItem", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConvertItem() error = %v", err)
			}
			if got.ReleaseDate != tt.wantRelease {
				t.Errorf("ReleaseDate = %q, want %q", got.ReleaseDate, tt.wantRelease)
			}
			if got.OriTitle != tt.wantOri {
				t.Errorf("OriTitle = %q, want %q", got.OriTitle, tt.wantOri)
			}
			if got.Season != 3 || got.Episode != 7 || got.MediaType != models.MediaTypeEpisode {
				t.Errorf("ConvertItem() = %+v", got)
			}
		})
	}
}
