// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/traktsync/internal/models"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/traktsync/config.yaml",
	"/etc/traktsync/config.yml",
}

// ConfigPathEnvVar names the environment variable holding an explicit config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Trakt: TraktConfig{
			BaseURL:           "https://api.trakt.tv",
			AuthorizeURL:      "https://trakt.tv/oauth/authorize",
			TokenURL:          "https://api.trakt.tv/oauth/token",
			APIVersion:        "2",
			PageSize:          1000,
			MaxPages:          100,
			MaxAttempts:       3,
			RateLimitLowWater: 10,
			RateLimitBuffer:   time.Second,
			PageDelay:         100 * time.Millisecond,
			RequestTimeout:    30 * time.Second,
		},
		Sync: SyncConfig{
			CheckpointBuffer: 24 * time.Hour,
			DefaultInterval:  models.DefaultSyncInterval,
			JobTimeout:       30 * time.Minute,
			Timezone:         "UTC",
		},
		Store: StoreConfig{
			Path:          "/data/traktsync",
			OAuthStateTTL: 5 * time.Minute,
			GCInterval:    10 * time.Minute,
		},
		Forwarder: ForwarderConfig{
			Timeout: 15 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3858,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:    "none",
			DefaultUser: "default_user",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"trakt_client_id":            "trakt.client_id",
	"trakt_client_secret":        "trakt.client_secret",
	"trakt_redirect_uri":         "trakt.redirect_uri",
	"trakt_base_url":             "trakt.base_url",
	"trakt_authorize_url":        "trakt.authorize_url",
	"trakt_token_url":            "trakt.token_url",
	"trakt_page_size":            "trakt.page_size",
	"trakt_max_pages":            "trakt.max_pages",
	"trakt_max_attempts":         "trakt.max_attempts",
	"trakt_rate_limit_low_water": "trakt.rate_limit_low_water",
	"trakt_page_delay":           "trakt.page_delay",
	"trakt_request_timeout":      "trakt.request_timeout",

	"sync_checkpoint_buffer": "sync.checkpoint_buffer",
	"sync_default_interval":  "sync.default_interval",
	"sync_job_timeout":       "sync.job_timeout",
	"sync_timezone":          "sync.timezone",

	"store_path":              "store.path",
	"store_in_memory":         "store.in_memory",
	"store_encryption_secret": "store.encryption_secret",
	"oauth_state_ttl":         "store.oauth_state_ttl",

	"forwarder_url":     "forwarder.url",
	"forwarder_api_key": "forwarder.api_key",
	"forwarder_timeout": "forwarder.timeout",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"ui_base_url":         "server.ui_base_url",

	"auth_mode":    "security.auth_mode",
	"jwt_secret":   "security.jwt_secret",
	"default_user": "security.default_user",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path.
//
//	TRAKT_CLIENT_ID -> trakt.client_id
//	FORWARDER_URL   -> forwarder.url
//	HTTP_PORT       -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
