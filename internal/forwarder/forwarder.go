// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package forwarder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/models"
)

const (
	breakerName    = "sync-forwarder"
	apiKeyHeader   = "X-API-Key"
	maxReplySize   = 64 << 10
	defaultTimeout = 15 * time.Second
)

// ErrRejected is returned when the downstream service answers with a
// non-2xx status.
var ErrRejected = errors.New("downstream sync service rejected item")

type submission struct {
	TaskID string                `json:"task_id"`
	Item   *models.CanonicalItem `json:"item"`
}

type reply struct {
	TaskID string `json:"task_id"`
}

// Client posts canonical items to the downstream sync service.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[string]
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the configured timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a forwarder for cfg.
func New(cfg *config.ForwarderConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		cb:         newBreaker(breakerName),
		logger:     logging.WithComponent("forwarder"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitAsync hands item to the downstream service and returns its task
// handle. The item is processed asynchronously on the downstream side.
func (c *Client) SubmitAsync(ctx context.Context, item *models.CanonicalItem) (string, error) {
	if item == nil {
		return "", errors.New("forwarder: nil item")
	}
	taskID := uuid.New().String()

	return execute(c.cb, func() (string, error) {
		return c.post(ctx, taskID, item)
	})
}

// State reports the breaker state ("closed", "half-open" or "open").
func (c *Client) State() string {
	return stateToString(c.cb.State())
}

func (c *Client) post(ctx context.Context, taskID string, item *models.CanonicalItem) (string, error) {
	payload, err := json.Marshal(submission{TaskID: taskID, Item: item})
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit item: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(body))
	}

	var r reply
	if len(body) > 0 && json.Unmarshal(body, &r) == nil && r.TaskID != "" {
		taskID = r.TaskID
	}

	c.logger.Debug().Str("task_id", taskID).Str("title", item.Title).
		Int("season", item.Season).Int("episode", item.Episode).Msg("Item submitted")
	return taskID, nil
}
