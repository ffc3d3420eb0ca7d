// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

// Package logging provides the process-wide zerolog logger.
//
// Every package logs through this one logger so that output format, level
// and field names stay uniform across the scheduler, the sync engine, the
// OAuth handlers and the HTTP API:
//
//   - JSON output in production, console output for local runs
//   - user_id and task_id propagated through context.Context
//   - a component field on every child logger
//   - a log/slog bridge for libraries that do not speak zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("user_id", userID).Msg("Sync started")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Token refresh failed")
//
// Components take a child logger tagged with their name:
//
//	logger := logging.WithComponent("scheduler")
//
// Libraries that expect log/slog (sutureslog) are bridged with NewSlogHandler.
//
// # Configuration
//
// Environment variables, read through internal/config:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false, include caller file and line (default: false)
//
// # Conventions
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written:
//
//	logging.Info().Str("user_id", id).Msg("Sync started") // written
//	logging.Info().Str("user_id", id)                     // dropped
//
// Prefer structured fields over Msgf so log pipelines can filter on them:
//
//	logging.Info().Str("user_id", id).Int("synced", n).Msg("Sync finished")
package logging
