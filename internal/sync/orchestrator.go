// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/metrics"
	"github.com/tomtom215/traktsync/internal/models"
	"github.com/tomtom215/traktsync/internal/trakt"
)

// Result messages.
const (
	MsgCredentialNotFound = "credential not found"
	MsgNotAuthorized      = "not authorized"
	MsgRefreshFailed      = "token expired and refresh failed"
	MsgClientFailed       = "client creation failed"
	MsgFetchFailed        = "history fetch failed"
	MsgNoNewHistory       = "no new history"
	MsgCompleted          = "sync completed"
	MsgPartialHistory     = "sync completed with partial history"
	MsgInterrupted        = "sync interrupted"
)

// CredentialStore is the part of the credential store the orchestrator uses.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
	UpdateCheckpoint(ctx context.Context, userID string, at time.Time) error
}

// TokenRefresher refreshes and persists an expired access token. It
// returns false on any failure.
type TokenRefresher interface {
	Refresh(ctx context.Context, userID string) bool
}

// HistoryClient fetches a user's watch history.
type HistoryClient interface {
	FetchAllHistory(ctx context.Context, startDate *time.Time, maxPages int) ([]models.HistoryItem, error)
}

// Connector builds a verified HistoryClient for an access token.
type Connector interface {
	Connect(ctx context.Context, accessToken string) (HistoryClient, error)
}

// Forwarder submits canonical items downstream.
type Forwarder interface {
	SubmitAsync(ctx context.Context, item *models.CanonicalItem) (string, error)
}

// DedupLedger records items already forwarded per user.
type DedupLedger interface {
	Exists(ctx context.Context, userID, identity string, watchedAt time.Time) (bool, error)
	Record(ctx context.Context, rec *models.DedupRecord) (bool, error)
}

// TraktConnector adapts a trakt.ClientFactory to Connector.
type TraktConnector struct {
	Factory *trakt.ClientFactory
}

// Connect implements Connector.
func (t TraktConnector) Connect(ctx context.Context, accessToken string) (HistoryClient, error) {
	c, err := t.Factory.Connect(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options tunes an Orchestrator.
type Options struct {
	// CheckpointBuffer is subtracted from the last sync time to form the
	// incremental start date.
	CheckpointBuffer time.Duration

	// MaxPages caps each history fetch.
	MaxPages int
}

// OptionsFromConfig maps configuration to orchestrator options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CheckpointBuffer: cfg.Sync.CheckpointBuffer,
		MaxPages:         cfg.Trakt.MaxPages,
	}
}

// Orchestrator runs one user's sync: credential checks, history fetch,
// filtering, dedup, conversion and forwarding.
//
// Each SyncUser call builds its own client and result, so runs for
// different users may execute concurrently. A second run for a user that
// is already syncing waits until the first returns or its own ctx ends,
// regardless of which caller started either run.
type Orchestrator struct {
	creds     CredentialStore
	refresher TokenRefresher
	connector Connector
	forwarder Forwarder
	ledger    DedupLedger
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time

	// Runs for the same user are serialized so the dedup check and the
	// forward of one run cannot interleave with another's.
	locks *userLocks
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(creds CredentialStore, refresher TokenRefresher, connector Connector, forwarder Forwarder, ledger DedupLedger, opts Options) *Orchestrator {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 100
	}
	if opts.CheckpointBuffer < 0 {
		opts.CheckpointBuffer = 0
	}
	return &Orchestrator{
		creds:     creds,
		refresher: refresher,
		connector: connector,
		forwarder: forwarder,
		ledger:    ledger,
		opts:      opts,
		logger:    logging.WithComponent("sync"),
		now:       time.Now,
		locks:     newUserLocks(),
	}
}

// run carries per-invocation state.
type run struct {
	userID   string
	fullSync bool
	result   *models.SyncResult
	log      *zerolog.Logger
	// partial is set when Trakt returned only the newest pages of history.
	partial bool
}

func (r *run) fail(message string) *models.SyncResult {
	r.result.Success = false
	r.result.Message = message
	r.result.ErrorCount++
	return r.result
}

// SyncUser synchronizes userID's history. It never panics on remote or
// item-level failures; the outcome is reported in the returned result.
func (o *Orchestrator) SyncUser(ctx context.Context, userID string, fullSync bool) *models.SyncResult {
	start := time.Now()
	ctx = logging.ContextWithUserID(ctx, userID)

	logCtx := o.logger.With().Str("user_id", userID)
	if taskID := logging.TaskIDFromContext(ctx); taskID != "" {
		logCtx = logCtx.Str("task_id", taskID)
	}
	log := logCtx.Logger()

	r := &run{
		userID:   userID,
		fullSync: fullSync,
		result:   &models.SyncResult{Details: map[string]interface{}{"full_sync": fullSync}},
		log:      &log,
	}
	r.log.Info().Bool("full_sync", fullSync).Msg("Sync started")

	result := o.execute(ctx, r)

	elapsed := time.Since(start)
	result.Details["duration_ms"] = elapsed.Milliseconds()
	metrics.RecordSyncRun(userID, result.Success, result.SyncedCount, result.SkippedCount, result.ErrorCount, elapsed)

	event := r.log.Info()
	if !result.Success {
		event = r.log.Warn()
	}
	event.Bool("success", result.Success).Str("message", result.Message).
		Int("synced", result.SyncedCount).Int("skipped", result.SkippedCount).
		Int("errors", result.ErrorCount).Dur("duration", elapsed).Msg("Sync finished")
	return result
}

func (o *Orchestrator) execute(ctx context.Context, r *run) *models.SyncResult {
	release, err := o.locks.acquire(ctx, r.userID)
	if err != nil {
		return r.fail(MsgInterrupted + ": " + err.Error())
	}
	defer release()

	cred, failure := o.loadCredential(ctx, r)
	if failure != nil {
		return failure
	}

	items, failure := o.fetchHistory(ctx, r, cred)
	if failure != nil {
		return failure
	}
	r.result.Details["total_items"] = len(items)

	if len(items) == 0 {
		r.result.Success = true
		r.result.Message = MsgNoNewHistory
		return r.result
	}

	if err := o.processItems(ctx, r, items); err != nil {
		r.result.Success = false
		r.result.Message = MsgInterrupted + ": " + err.Error()
		return r.result
	}

	o.finalize(ctx, r)
	return r.result
}

// loadCredential loads the credential and makes sure it holds a usable
// access token, refreshing it when expired.
func (o *Orchestrator) loadCredential(ctx context.Context, r *run) (*models.Credential, *models.SyncResult) {
	cred, err := o.creds.Get(ctx, r.userID)
	if err != nil {
		if !errors.Is(err, models.ErrCredentialNotFound) {
			r.log.Error().Err(err).Msg("Credential lookup failed")
		}
		return nil, r.fail(MsgCredentialNotFound)
	}
	if !cred.HasAccessToken() {
		return nil, r.fail(MsgNotAuthorized)
	}
	if !cred.IsExpired(o.now()) {
		return cred, nil
	}

	r.log.Info().Msg("Access token expired, refreshing")
	return o.refreshCredential(ctx, r)
}

func (o *Orchestrator) refreshCredential(ctx context.Context, r *run) (*models.Credential, *models.SyncResult) {
	if o.refresher == nil || !o.refresher.Refresh(ctx, r.userID) {
		return nil, r.fail(MsgRefreshFailed)
	}
	cred, err := o.creds.Get(ctx, r.userID)
	if err != nil || !cred.HasAccessToken() {
		return nil, r.fail(MsgRefreshFailed)
	}
	return cred, nil
}

// fetchHistory connects and pulls history. A 401 from Trakt marks the
// stored token expired and triggers one refresh followed by one retry.
func (o *Orchestrator) fetchHistory(ctx context.Context, r *run, cred *models.Credential) ([]models.HistoryItem, *models.SyncResult) {
	startDate := o.startDate(cred, r.fullSync)
	if startDate != nil {
		r.result.Details["start_date"] = startDate.UTC().Format(time.RFC3339)
	}

	items, stage, err := o.connectAndFetch(ctx, cred.AccessToken, startDate)
	if errors.Is(err, trakt.ErrAuthentication) {
		r.log.Warn().Err(err).Msg("Trakt rejected the access token, refreshing")
		refreshed, failure := o.reauthorize(ctx, r, cred)
		if failure != nil {
			return nil, failure
		}
		items, stage, err = o.connectAndFetch(ctx, refreshed.AccessToken, startDate)
	}
	if errors.Is(err, trakt.ErrIncompleteHistory) {
		r.log.Warn().Err(err).Int("items", len(items)).Msg("Trakt history incomplete, checkpoint will be held")
		r.partial = true
		r.result.Details["partial_history"] = true
		r.result.Details["history_error"] = err.Error()
		return items, nil
	}
	if err != nil {
		r.log.Warn().Err(err).Str("stage", stage).Msg("Trakt history unavailable")
		return nil, r.fail(stage)
	}
	return items, nil
}

// connectAndFetch returns the failing stage's result message with any error.
func (o *Orchestrator) connectAndFetch(ctx context.Context, accessToken string, startDate *time.Time) ([]models.HistoryItem, string, error) {
	client, err := o.connector.Connect(ctx, accessToken)
	if err != nil {
		return nil, MsgClientFailed, err
	}
	items, err := client.FetchAllHistory(ctx, startDate, o.opts.MaxPages)
	if errors.Is(err, trakt.ErrIncompleteHistory) {
		return items, "", err
	}
	if err != nil {
		return nil, MsgFetchFailed, err
	}
	return items, "", nil
}

func (o *Orchestrator) reauthorize(ctx context.Context, r *run, cred *models.Credential) (*models.Credential, *models.SyncResult) {
	expired := *cred
	expired.ExpiresAt = nil
	if err := o.creds.Save(ctx, &expired); err != nil {
		r.log.Error().Err(err).Msg("Failed to mark token expired")
	}
	return o.refreshCredential(ctx, r)
}

// startDate returns nil for full syncs and for users that never synced.
func (o *Orchestrator) startDate(cred *models.Credential, fullSync bool) *time.Time {
	if fullSync || cred.LastSyncAt == nil {
		return nil
	}
	start := cred.LastSyncAt.Add(-o.opts.CheckpointBuffer)
	return &start
}

// processItems handles items strictly in the order received. Item-level
// failures are counted and never stop the batch; only cancellation does.
func (o *Orchestrator) processItems(ctx context.Context, r *run, items []models.HistoryItem) error {
	filtered := 0
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := &items[i]
		if !item.IsEpisode() {
			filtered++
			r.result.SkippedCount++
			continue
		}

		switch o.processItem(ctx, r, item) {
		case outcomeSynced:
			r.result.SyncedCount++
		case outcomeSkipped:
			r.result.SkippedCount++
		case outcomeError:
			r.result.ErrorCount++
		}
	}
	r.result.Details["filtered_count"] = filtered
	return nil
}

type outcome int

const (
	outcomeSynced outcome = iota
	outcomeSkipped
	outcomeError
)

func (o *Orchestrator) processItem(ctx context.Context, r *run, item *models.HistoryItem) outcome {
	identity := item.Identity()
	itemLog := r.log.With().Str("item", identity).Time("watched_at", item.WatchedAt).Logger()

	exists, err := o.ledger.Exists(ctx, r.userID, identity, item.WatchedAt)
	if err != nil {
		itemLog.Error().Err(err).Msg("Dedup lookup failed")
		return outcomeError
	}
	if exists {
		return outcomeSkipped
	}

	canonical, err := ConvertItem(item, r.userID)
	if err != nil {
		itemLog.Debug().Err(err).Msg("Skipping incomplete item")
		return outcomeSkipped
	}

	taskID, err := o.forwarder.SubmitAsync(ctx, canonical)
	if err != nil {
		itemLog.Warn().Err(err).Msg("Forwarding item failed")
		return outcomeError
	}

	rec := &models.DedupRecord{
		UserID:       r.userID,
		ItemIdentity: identity,
		MediaType:    item.Type,
		WatchedAt:    item.WatchedAt,
		SyncedAt:     o.now(),
		TaskID:       taskID,
	}
	if _, err := o.ledger.Record(ctx, rec); err != nil {
		itemLog.Error().Err(err).Str("task_id", taskID).Msg("Item forwarded but dedup record failed")
	}
	return outcomeSynced
}

// finalize marks the run successful and advances the checkpoint. A run that
// saw only part of the history leaves the checkpoint where it was, so the
// next incremental sync asks for the missing older pages again.
func (o *Orchestrator) finalize(ctx context.Context, r *run) {
	r.result.Success = true
	if r.partial {
		r.result.Message = MsgPartialHistory
		return
	}
	r.result.Message = MsgCompleted

	if err := o.creds.UpdateCheckpoint(ctx, r.userID, o.now()); err != nil {
		r.log.Error().Err(err).Msg("Failed to advance sync checkpoint")
	}
}
