// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package trakt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/traktsync/internal/models"
)

const (
	historyPath = "/sync/history"
	profilePath = "/users/me"

	startDateLayout = "2006-01-02"
)

// FetchHistoryPage fetches one page of watch history. startDate, when set,
// is sent as start_at with date precision. A nil slice with a nil error
// means the page could not be retrieved or decoded.
func (c *Client) FetchHistoryPage(ctx context.Context, page, limit int, startDate *time.Time) ([]models.HistoryItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("page", strconv.Itoa(page))
	if startDate != nil {
		params.Set("start_at", startDate.UTC().Format(startDateLayout))
	}

	body, err := c.FetchPage(ctx, http.MethodGet, historyPath, params)
	if err != nil || body == nil {
		return nil, err
	}

	var items []models.HistoryItem
	if err := json.Unmarshal(body, &items); err != nil {
		c.logger.Warn().Err(err).Int("page", page).Msg("Failed to decode history page")
		return nil, nil
	}
	return items, nil
}

// FetchAllHistory pages through /sync/history until a page comes back short
// or maxPages pages have been read. Items are returned in page order.
//
// A first page that cannot be retrieved yields no data and a nil error. A
// later page failing returns the items read so far with an error wrapping
// ErrIncompleteHistory.
func (c *Client) FetchAllHistory(ctx context.Context, startDate *time.Time, maxPages int) ([]models.HistoryItem, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	pacer := rate.NewLimiter(rate.Every(c.opts.PageDelay), 1)
	var all []models.HistoryItem

	for page := 1; page <= maxPages; page++ {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		items, err := c.FetchHistoryPage(ctx, page, c.opts.PageSize, startDate)
		if err != nil {
			return nil, err
		}
		if items == nil && page > 1 {
			c.logger.Warn().Int("page", page).Int("total", len(all)).Msg("History page unavailable, returning partial history")
			return all, fmt.Errorf("%w: page %d unavailable", ErrIncompleteHistory, page)
		}
		all = append(all, items...)

		c.logger.Debug().Int("page", page).Int("items", len(items)).Int("total", len(all)).Msg("Fetched history page")

		if len(items) < c.opts.PageSize {
			break
		}
	}
	return all, nil
}

// GetUserProfile fetches the profile of the token's owner.
func (c *Client) GetUserProfile(ctx context.Context) (*models.UserProfile, error) {
	body, err := c.FetchPage(ctx, http.MethodGet, profilePath, nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ErrNoData
	}

	var profile models.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	return &profile, nil
}

// TestConnection reports whether the profile check succeeds.
func (c *Client) TestConnection(ctx context.Context) bool {
	profile, err := c.GetUserProfile(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Trakt connection test failed")
		return false
	}
	return profile != nil
}
