// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/traktsync/internal/models"
)

// ErrIncompleteItem is returned for history items missing fields the
// downstream service requires.
var ErrIncompleteItem = errors.New("incomplete history item")

const releaseDateLen = len("2006-01-02")

// ConvertItem maps an episode history item to the downstream canonical
// item. Movies and items without a show title, season or episode number
// are rejected with ErrIncompleteItem.
func ConvertItem(item *models.HistoryItem, userID string) (*models.CanonicalItem, error) {
	if !item.IsEpisode() {
		return nil, fmt.Errorf("%w: type %q is not an episode", ErrIncompleteItem, item.Type)
	}
	if item.Show == nil || strings.TrimSpace(item.Show.Title) == "" {
		return nil, fmt.Errorf("%w: missing show title", ErrIncompleteItem)
	}
	if item.Episode == nil || item.Episode.Season == nil || item.Episode.Number == nil {
		return nil, fmt.Errorf("%w: missing season or episode number", ErrIncompleteItem)
	}

	releaseDate := datePart(item.Episode.FirstAired)
	if releaseDate == "" {
		releaseDate = datePart(item.Show.FirstAired)
	}

	return &models.CanonicalItem{
		MediaType:   models.MediaTypeEpisode,
		Title:       item.Show.Title,
		OriTitle:    item.Show.OriginalTitle,
		Season:      *item.Episode.Season,
		Episode:     *item.Episode.Number,
		ReleaseDate: releaseDate,
		UserName:    userID,
		Source:      models.SourceTrakt,
		WatchedAt:   item.WatchedAt,
	}, nil
}

// datePart trims an ISO-8601 timestamp to YYYY-MM-DD.
func datePart(ts string) string {
	if len(ts) < releaseDateLen {
		return ts
	}
	return ts[:releaseDateLen]
}
