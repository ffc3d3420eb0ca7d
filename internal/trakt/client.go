// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package trakt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/metrics"
)

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerRetryAfter    = "Retry-After"

	// defaultRetryAfter applies when a 429 carries no usable Retry-After.
	defaultRetryAfter = 10 * time.Second

	maxResponseSize  = 32 << 20
	maxErrorBodySize = 4 << 10

	userAgent = "traktsync/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	ClientID     string
	APIVersion   string
	PageSize     int
	MaxAttempts  int
	LowWaterMark int
	ResetBuffer  time.Duration
	PageDelay    time.Duration
	Timeout      time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// OptionsFromConfig maps the trakt config section to client options.
func OptionsFromConfig(cfg *config.TraktConfig) Options {
	return Options{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		APIVersion:   cfg.APIVersion,
		PageSize:     cfg.PageSize,
		MaxAttempts:  cfg.MaxAttempts,
		LowWaterMark: cfg.RateLimitLowWater,
		ResetBuffer:  cfg.RateLimitBuffer,
		PageDelay:    cfg.PageDelay,
		Timeout:      cfg.RequestTimeout,
	}
}

func (o *Options) applyDefaults() {
	if o.APIVersion == "" {
		o.APIVersion = "2"
	}
	if o.PageSize <= 0 {
		o.PageSize = 1000
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
}

// Client talks to the Trakt API on behalf of one user.
type Client struct {
	opts        Options
	accessToken string
	httpClient  *http.Client
	logger      zerolog.Logger

	mu        sync.Mutex
	remaining int // -1 until a response has reported it
	resetAt   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for accessToken.
func NewClient(accessToken string, opts Options) *Client {
	opts.applyDefaults()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		opts:        opts,
		accessToken: accessToken,
		httpClient:  httpClient,
		logger:      logging.WithComponent("trakt_client"),
		remaining:   -1,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchPage performs an API call and returns the raw response body.
//
// A nil body with a nil error means no data: retries were exhausted or the
// API answered with a non-retryable status. Errors are returned only for
// HTTP 401 (*AuthenticationError) and context cancellation.
func (c *Client) FetchPage(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.waitForRateLimit(ctx); err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, method, path, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.TraktRetries.WithLabelValues("network").Inc()
			c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("Trakt request failed")
			continue
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			return resp.body, nil

		case resp.status == http.StatusUnauthorized:
			return nil, &AuthenticationError{Path: path, Body: truncate(resp.body)}

		case resp.status == http.StatusTooManyRequests:
			metrics.TraktRetries.WithLabelValues("rate_limited").Inc()
			if attempt == c.opts.MaxAttempts {
				continue
			}
			c.logger.Warn().Str("path", path).Dur("retry_after", resp.retryAfter).
				Int("attempt", attempt).Msg("Trakt rate limit hit, waiting")
			if err := c.sleep(ctx, resp.retryAfter); err != nil {
				return nil, err
			}

		case resp.status >= 500:
			metrics.TraktRetries.WithLabelValues("server_error").Inc()
			c.logger.Warn().Str("path", path).Int("status", resp.status).
				Int("attempt", attempt).Msg("Trakt server error")

		default:
			c.logger.Warn().Str("path", path).Int("status", resp.status).
				Str("body", truncate(resp.body)).Msg("Trakt request rejected")
			return nil, nil
		}
	}

	c.logger.Error().Str("path", path).Int("attempts", c.opts.MaxAttempts).Msg("Trakt request failed after all attempts")
	return nil, nil
}

type response struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*response, error) {
	reqURL := c.opts.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("trakt-api-version", c.opts.APIVersion)
	req.Header.Set("trakt-api-key", c.opts.ClientID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordTraktRequest(path, 0, time.Since(start))
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	metrics.RecordTraktRequest(path, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.updateRateLimit(resp.Header)

	return &response{
		status:     resp.StatusCode,
		body:       body,
		retryAfter: parseRetryAfter(resp.Header.Get(headerRetryAfter)),
	}, nil
}

// waitForRateLimit sleeps until the rate window resets when the remaining
// budget is below the low-water mark.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	c.mu.Lock()
	remaining, resetAt := c.remaining, c.resetAt
	c.mu.Unlock()

	if remaining < 0 || remaining >= c.opts.LowWaterMark {
		return nil
	}
	now := c.now()
	if !resetAt.After(now) {
		return nil
	}

	wait := resetAt.Sub(now) + c.opts.ResetBuffer
	metrics.TraktRateLimitWaits.Inc()
	c.logger.Info().Int("remaining", remaining).Dur("wait", wait).Msg("Trakt rate budget low, waiting for reset")

	if err := c.sleep(ctx, wait); err != nil {
		return err
	}

	c.mu.Lock()
	c.remaining = -1
	c.mu.Unlock()
	return nil
}

func (c *Client) updateRateLimit(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := h.Get(headerRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.remaining = n
			metrics.TraktRateLimitRemaining.Set(float64(n))
		}
	}
	if v := h.Get(headerRateReset); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.resetAt = time.Unix(epoch, 0)
		}
	}
}

// RateLimitState returns the last observed remaining budget (-1 if unknown)
// and reset instant.
func (c *Client) RateLimitState() (remaining int, resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining, c.resetAt
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodySize {
		return string(body[:maxErrorBodySize]) + "... (truncated)"
	}
	return string(body)
}
