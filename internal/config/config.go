// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package config

import "time"

// Config is the complete service configuration.
type Config struct {
	Trakt     TraktConfig     `koanf:"trakt"`
	Sync      SyncConfig      `koanf:"sync"`
	Store     StoreConfig     `koanf:"store"`
	Forwarder ForwarderConfig `koanf:"forwarder"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TraktConfig configures the Trakt API client and OAuth application.
type TraktConfig struct {
	// OAuth application credentials. Optional at startup; the OAuth
	// endpoints report a configuration error until they are set.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri" validate:"omitempty,url"`

	BaseURL      string `koanf:"base_url" validate:"required,url"`
	AuthorizeURL string `koanf:"authorize_url" validate:"required,url"`
	TokenURL     string `koanf:"token_url" validate:"required,url"`
	APIVersion   string `koanf:"api_version" validate:"required"`

	// PageSize is the number of history events requested per page.
	PageSize int `koanf:"page_size" validate:"min=1"`

	// MaxPages caps a single history fetch.
	MaxPages int `koanf:"max_pages" validate:"min=1"`

	// MaxAttempts is the total number of attempts per request for 429,
	// 5xx and network failures.
	MaxAttempts int `koanf:"max_attempts" validate:"min=1,max=10"`

	// RateLimitLowWater is the remaining-request count below which the
	// client waits for the rate window to reset.
	RateLimitLowWater int           `koanf:"rate_limit_low_water" validate:"min=0"`
	RateLimitBuffer   time.Duration `koanf:"rate_limit_buffer" validate:"min=0"`

	// PageDelay is the pause between consecutive page requests.
	PageDelay time.Duration `koanf:"page_delay" validate:"min=0"`

	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

// OAuthConfigured reports whether the OAuth application credentials are set.
func (t *TraktConfig) OAuthConfigured() bool {
	return t.ClientID != "" && t.ClientSecret != "" && t.RedirectURI != ""
}

// SyncConfig configures the orchestrator and the job scheduler.
type SyncConfig struct {
	// CheckpointBuffer is subtracted from the last sync time to form the
	// start date of an incremental fetch.
	CheckpointBuffer time.Duration `koanf:"checkpoint_buffer" validate:"min=0"`

	// DefaultInterval is used for users without a valid cron expression.
	DefaultInterval string `koanf:"default_interval" validate:"required,cron"`

	// JobTimeout bounds a single scheduled sync run.
	JobTimeout time.Duration `koanf:"job_timeout" validate:"gt=0"`

	// Timezone in which cron expressions are evaluated.
	Timezone string `koanf:"timezone" validate:"required"`
}

// StoreConfig configures the BadgerDB store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// EncryptionSecret derives the key that encrypts OAuth tokens at rest.
	// Empty disables encryption.
	EncryptionSecret string `koanf:"encryption_secret"`

	// OAuthStateTTL is how long an authorization state stays valid.
	OAuthStateTTL time.Duration `koanf:"oauth_state_ttl" validate:"gt=0"`

	// GCInterval is how often badger value log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval" validate:"gt=0"`
}

// ForwarderConfig configures the downstream sync service client.
type ForwarderConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// UIBaseURL prefixes the OAuth callback redirects to the web UI.
	UIBaseURL string `koanf:"ui_base_url"`
}

// SecurityConfig configures API authentication.
type SecurityConfig struct {
	// AuthMode is "none" (every request acts as DefaultUser) or "jwt"
	// (HS256 bearer token, user taken from the sub claim).
	AuthMode    string `koanf:"auth_mode" validate:"oneof=none jwt"`
	JWTSecret   string `koanf:"jwt_secret"`
	DefaultUser string `koanf:"default_user" validate:"required"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
