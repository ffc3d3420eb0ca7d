// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/traktsync/internal/api"
	"github.com/tomtom215/traktsync/internal/auth"
	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/forwarder"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/scheduler"
	"github.com/tomtom215/traktsync/internal/store"
	"github.com/tomtom215/traktsync/internal/supervisor"
	"github.com/tomtom215/traktsync/internal/supervisor/services"
	"github.com/tomtom215/traktsync/internal/sync"
	"github.com/tomtom215/traktsync/internal/trakt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("oauth_configured", cfg.Trakt.OAuthConfigured()).
		Msg("Starting Trakt Sync")

	db, err := store.Open(store.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}

	if err := run(cfg, db); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
	}

	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing store")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config, db *badger.DB) error {
	var enc *config.TokenEncryptor
	if cfg.Store.EncryptionSecret != "" {
		var err error
		enc, err = config.NewTokenEncryptor(cfg.Store.EncryptionSecret)
		if err != nil {
			return err
		}
	} else {
		logging.Warn().Msg("STORE_ENCRYPTION_SECRET is not set; OAuth tokens are stored unencrypted")
	}

	creds := store.NewCredentialStore(db, enc)
	ledger := store.NewDedupLedger(db)
	states := store.NewStateStore(db)

	authSvc := auth.NewService(auth.ConfigFrom(cfg), creds, states)
	if !authSvc.Configured() {
		logging.Warn().Msg("Trakt OAuth is not configured; set TRAKT_CLIENT_ID, TRAKT_CLIENT_SECRET and TRAKT_REDIRECT_URI")
	}

	factory := trakt.NewClientFactory(trakt.OptionsFromConfig(&cfg.Trakt))
	fwd := forwarder.New(&cfg.Forwarder)

	orch := sync.NewOrchestrator(creds, authSvc, sync.TraktConnector{Factory: factory}, fwd, ledger, sync.OptionsFromConfig(cfg))
	tasks := sync.NewTaskRunner(orch, cfg.Sync.JobTimeout)

	schedOpts := scheduler.OptionsFromConfig(&cfg.Sync)
	schedOpts.OnResult = tasks.Record
	sched := scheduler.New(creds, authSvc, orch, schedOpts)

	authn, err := api.NewAuthenticator(&cfg.Security)
	if err != nil {
		return err
	}
	if cfg.Security.AuthMode == "none" {
		logging.Warn().Str("user_id", cfg.Security.DefaultUser).Msg("Authentication is disabled; every request acts as the default user")
	}

	handler := api.NewHandler(api.Dependencies{
		OAuth:       authSvc,
		Credentials: creds,
		Ledger:      ledger,
		Tasks:       tasks,
		Scheduler:   sched,
		UIBaseURL:   cfg.Server.UIBaseURL,
	})
	router := api.NewRouter(handler, authn, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Server)))
	server := api.NewServer(&cfg.Server, router.Setup())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + cfg.Sync.JobTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddSyncService(services.NewSchedulerService(sched))
	tree.AddSyncService(services.NewCloserService("task-runner", tasks))
	tree.AddSyncService(store.NewGarbageCollector(db, cfg.Store.GCInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)
	logging.Info().Msg("Supervisor tree started")

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for services to stop")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}
