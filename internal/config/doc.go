// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package config loads and validates the service configuration.
//
// Configuration is layered with koanf, later sources overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file: CONFIG_PATH, else the first of DefaultConfigPaths that exists
//  3. Environment variables (see envTransformFunc for the mapping)
//
// Example config.yaml:
//
//	trakt:
//	  client_id: "abc"
//	  client_secret: "def"
//	  redirect_uri: "https://sync.example.com/api/v1/trakt/auth/callback"
//	sync:
//	  default_interval: "0 */6 * * *"
//	  job_timeout: 30m
//	forwarder:
//	  url: "http://moviepilot:3000/api/v1/sync/items"
//	store:
//	  path: /data/traktsync
//	  encryption_secret: "at-least-32-characters-of-secret"
//
// The package also provides TokenEncryptor, used by the store to encrypt
// OAuth tokens at rest.
package config
