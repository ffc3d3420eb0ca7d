// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package models

import (
	"strconv"
	"time"
)

// Media types reported in the "type" field of a history event.
const (
	MediaTypeEpisode = "episode"
	MediaTypeMovie   = "movie"
)

// IDs contains the identifiers Trakt attaches to shows, episodes and movies.
type IDs struct {
	Trakt int64  `json:"trakt,omitempty"`
	TVDB  int64  `json:"tvdb,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int64  `json:"tmdb,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// Episode is the episode payload of a history event. Season and Number are
// pointers so that season 0 (specials) is distinguishable from a missing field.
type Episode struct {
	Season     *int   `json:"season,omitempty"`
	Number     *int   `json:"number,omitempty"`
	Title      string `json:"title,omitempty"`
	FirstAired string `json:"first_aired,omitempty"`
	IDs        IDs    `json:"ids"`
}

// Show is the show payload of an episode history event.
type Show struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`
	Year          int    `json:"year,omitempty"`
	FirstAired    string `json:"first_aired,omitempty"`
	IDs           IDs    `json:"ids"`
}

// Movie is the movie payload of a history event.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	IDs   IDs    `json:"ids"`
}

// HistoryItem is one watch event from GET /sync/history.
type HistoryItem struct {
	ID        int64     `json:"id"`
	WatchedAt time.Time `json:"watched_at"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Episode   *Episode  `json:"episode,omitempty"`
	Show      *Show     `json:"show,omitempty"`
	Movie     *Movie    `json:"movie,omitempty"`
}

// Identity returns the dedup identity of the event, e.g. "episode:123".
func (h *HistoryItem) Identity() string {
	return h.Type + ":" + strconv.FormatInt(h.ID, 10)
}

// IsEpisode reports whether the event is an episode watch.
func (h *HistoryItem) IsEpisode() bool {
	return h.Type == MediaTypeEpisode
}

// UserProfile is the subset of the Trakt user profile used for connectivity
// probing and display.
type UserProfile struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Private  bool   `json:"private"`
	VIP      bool   `json:"vip"`
	IDs      IDs    `json:"ids"`
}
