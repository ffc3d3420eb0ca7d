// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/metrics"
	"github.com/tomtom215/traktsync/internal/models"
)

const stateBytes = 32

// CredentialStore persists per-user credentials.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
	Delete(ctx context.Context, userID string) error
}

// StateStore holds short-lived OAuth states. Take must return a value at
// most once.
type StateStore interface {
	Save(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, bool, error)
}

// Config holds the OAuth application settings.
type Config struct {
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	AuthorizeURL    string
	TokenURL        string
	DefaultInterval string
	StateTTL        time.Duration
	Timeout         time.Duration
}

// ConfigFrom builds an OAuth Config from the application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ClientID:        cfg.Trakt.ClientID,
		ClientSecret:    cfg.Trakt.ClientSecret,
		RedirectURI:     cfg.Trakt.RedirectURI,
		AuthorizeURL:    cfg.Trakt.AuthorizeURL,
		TokenURL:        cfg.Trakt.TokenURL,
		DefaultInterval: cfg.Sync.DefaultInterval,
		StateTTL:        cfg.Store.OAuthStateTTL,
		Timeout:         cfg.Trakt.RequestTimeout,
	}
}

func (c Config) configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}

// AuthResponse is returned by InitOAuth.
type AuthResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// Service implements the Trakt OAuth authorization-code flow and token
// refresh.
type Service struct {
	cfg        Config
	creds      CredentialStore
	states     StateStore
	httpClient *http.Client
	refreshes  singleflight.Group
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates an OAuth service.
func NewService(cfg Config, creds CredentialStore, states StateStore) *Service {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DefaultInterval == "" {
		cfg.DefaultInterval = models.DefaultSyncInterval
	}
	return &Service{
		cfg:        cfg,
		creds:      creds,
		states:     states,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.WithComponent("oauth"),
		now:        time.Now,
	}
}

// Configured reports whether the OAuth application credentials are set.
func (s *Service) Configured() bool {
	return s.cfg.configured()
}

// InitOAuth starts an authorization for userID.
func (s *Service) InitOAuth(ctx context.Context, userID string) (resp *AuthResponse, err error) {
	defer func() { metrics.RecordOAuth("init", err) }()

	if !s.cfg.configured() {
		return nil, ErrNotConfigured
	}

	state, err := generateState()
	if err != nil {
		return nil, err
	}
	if err = s.states.Save(ctx, state, userID, s.cfg.StateTTL); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", s.cfg.ClientID)
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("state", state)

	s.logger.Info().Str("user_id", userID).Msg("OAuth authorization started")
	return &AuthResponse{
		AuthURL: s.cfg.AuthorizeURL + "?" + params.Encode(),
		State:   state,
	}, nil
}

// HandleCallback completes an authorization and returns the user id the
// state was issued for.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (userID string, err error) {
	defer func() { metrics.RecordOAuth("callback", err) }()

	if !s.cfg.configured() {
		return "", ErrNotConfigured
	}
	if code == "" || state == "" {
		return "", ErrInvalidState
	}

	userID, ok, err := s.states.Take(ctx, state)
	if err != nil {
		return "", fmt.Errorf("load oauth state: %w", err)
	}
	if !ok {
		return "", ErrInvalidState
	}

	tok, err := s.exchange(ctx, tokenRequest{
		Code:         code,
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURI:  s.cfg.RedirectURI,
		GrantType:    "authorization_code",
	})
	if err != nil {
		return "", err
	}

	now := s.now()
	cred, err := s.creds.Get(ctx, userID)
	switch {
	case errors.Is(err, models.ErrCredentialNotFound):
		cred = &models.Credential{
			UserID:       userID,
			Enabled:      true,
			SyncInterval: s.cfg.DefaultInterval,
			CreatedAt:    now,
		}
	case err != nil:
		return "", fmt.Errorf("load credential: %w", err)
	}

	cred.AccessToken = tok.AccessToken
	cred.RefreshToken = tok.RefreshToken
	cred.ExpiresAt = tok.expiresAt(now)
	cred.UpdatedAt = now

	if err := s.creds.Save(ctx, cred); err != nil {
		return "", fmt.Errorf("save credential: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("Trakt authorization completed")
	return userID, nil
}

// Refresh makes sure userID holds a usable access token. It returns true
// when the token is still valid or was refreshed.
func (s *Service) Refresh(ctx context.Context, userID string) bool {
	_, err, _ := s.refreshes.Do(userID, func() (interface{}, error) {
		return nil, s.refresh(ctx, userID)
	})
	metrics.RecordOAuth("refresh", err)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Token refresh failed")
		return false
	}
	return true
}

func (s *Service) refresh(ctx context.Context, userID string) error {
	cred, err := s.creds.Get(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	if !cred.IsExpired(now) {
		return nil
	}
	if cred.RefreshToken == "" {
		return ErrNoRefreshToken
	}
	if !s.cfg.configured() {
		return ErrNotConfigured
	}

	tok, err := s.exchange(ctx, tokenRequest{
		RefreshToken: cred.RefreshToken,
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURI:  s.cfg.RedirectURI,
		GrantType:    "refresh_token",
	})
	if err != nil {
		return err
	}

	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	cred.ExpiresAt = tok.expiresAt(now)
	cred.UpdatedAt = now

	if err := s.creds.Save(ctx, cred); err != nil {
		return fmt.Errorf("save refreshed credential: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Msg("Access token refreshed")
	return nil
}

// Disconnect removes the stored credential for userID.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	err := s.creds.Delete(ctx, userID)
	metrics.RecordOAuth("disconnect", err)
	if err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("Trakt disconnected")
	return nil
}

func generateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
