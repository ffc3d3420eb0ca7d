// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/metrics"
	"github.com/tomtom215/traktsync/internal/models"
	"github.com/tomtom215/traktsync/internal/validation"
)

// Execution outcomes recorded in metrics.SchedulerExecutions.
const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeTimeout   = "timeout"
	outcomePanic     = "panic"
	outcomeSkipped   = "skipped"
)

const jobIDPrefix = "trakt_sync_"

// CredentialStore is the subset of the credential store the scheduler reads.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	ListEnabled(ctx context.Context) ([]*models.Credential, error)
}

// TokenRefresher refreshes a user's access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, userID string) bool
}

// UserSyncer runs one sync for a user.
type UserSyncer interface {
	SyncUser(ctx context.Context, userID string, fullSync bool) *models.SyncResult
}

// Options configures a Scheduler.
type Options struct {
	// DefaultInterval replaces missing or invalid user expressions.
	DefaultInterval string

	// JobTimeout bounds a single run.
	JobTimeout time.Duration

	// Location is the timezone cron expressions are evaluated in.
	Location *time.Location

	// OnResult, when set, receives the result of every finished run.
	OnResult func(userID string, result *models.SyncResult)
}

// OptionsFromConfig builds Options from the sync configuration.
func OptionsFromConfig(cfg *config.SyncConfig) Options {
	return Options{
		DefaultInterval: cfg.DefaultInterval,
		JobTimeout:      cfg.JobTimeout,
		Location:        cfg.Location(),
	}
}

// JobID returns the job identifier for a user.
func JobID(userID string) string {
	return jobIDPrefix + userID
}

type job struct {
	userID   string
	expr     string
	schedule cron.Schedule
	runner   cron.Job
	entryID  cron.EntryID
	paused   bool
	lastRun  *time.Time
}

// Scheduler owns one cron job per user.
type Scheduler struct {
	creds     CredentialStore
	refresher TokenRefresher
	syncer    UserSyncer
	opts      Options
	logger    zerolog.Logger
	cronLog   cronLogger
	now       func() time.Time

	defaultSchedule cron.Schedule

	// observe is called after every run with its outcome.
	observe func(userID, outcome string)

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   map[string]*job
	wg     sync.WaitGroup
}

// New creates a stopped scheduler.
func New(creds CredentialStore, refresher TokenRefresher, syncer UserSyncer, opts Options) *Scheduler {
	logger := logging.WithComponent("scheduler")

	defaultSchedule, err := validation.ParseCron(opts.DefaultInterval)
	if err != nil {
		if opts.DefaultInterval != "" {
			logger.Warn().Str("interval", opts.DefaultInterval).Msg("Invalid default interval, using built-in default")
		}
		opts.DefaultInterval = models.DefaultSyncInterval
		defaultSchedule, _ = validation.ParseCron(models.DefaultSyncInterval)
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Scheduler{
		creds:           creds,
		refresher:       refresher,
		syncer:          syncer,
		opts:            opts,
		logger:          logger,
		cronLog:         cronLogger{logger: logger},
		now:             time.Now,
		defaultSchedule: defaultSchedule,
		jobs:            make(map[string]*job),
	}
}

// Start registers a job for every enabled credential and starts the cron
// loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	creds, err := s.creds.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled credentials: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(s.cronLog),
	)
	s.cron.Start()

	for _, cred := range creds {
		s.addLocked(cred.UserID, cred.Interval())
	}

	s.logger.Info().
		Int("jobs", len(s.jobs)).
		Str("timezone", s.opts.Location.String()).
		Msg("Scheduler started")
	return nil
}

// Stop cancels in-flight runs, waits for them to return and clears all
// jobs. It is safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil {
		s.mu.Unlock()
		return
	}
	c, cancel := s.cron, s.cancel
	s.cron, s.ctx, s.cancel = nil, nil, nil
	s.jobs = make(map[string]*job)
	metrics.SchedulerJobs.Set(0)
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// AddUserJob schedules userID with expr, replacing any existing job.
// Invalid expressions fall back to the default interval. It returns false
// when the scheduler is not running.
func (s *Scheduler) AddUserJob(userID, expr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		s.logger.Warn().Str("user_id", userID).Msg("Scheduler not running, job not added")
		return false
	}
	s.addLocked(userID, expr)
	return true
}

// UpdateUserJob reschedules userID with expr.
func (s *Scheduler) UpdateUserJob(userID, expr string) bool {
	return s.AddUserJob(userID, expr)
}

// RemoveUserJob drops userID's job. Removing an unknown job succeeds.
func (s *Scheduler) RemoveUserJob(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[userID]
	if !ok {
		return true
	}
	if !j.paused {
		s.cron.Remove(j.entryID)
	}
	delete(s.jobs, userID)
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))
	s.logger.Info().Str("user_id", userID).Msg("Removed sync job")
	return true
}

// PauseUserJob stops future runs of userID's job while keeping it
// registered. It returns false for unknown jobs.
func (s *Scheduler) PauseUserJob(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[userID]
	if !ok {
		return false
	}
	if !j.paused {
		s.cron.Remove(j.entryID)
		j.paused = true
		s.logger.Info().Str("user_id", userID).Msg("Paused sync job")
	}
	return true
}

// ResumeUserJob reverses PauseUserJob.
func (s *Scheduler) ResumeUserJob(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[userID]
	if !ok {
		return false
	}
	if j.paused {
		j.entryID = s.cron.Schedule(j.schedule, j.runner)
		j.paused = false
		s.logger.Info().Str("user_id", userID).Msg("Resumed sync job")
	}
	return true
}

// TriggerUserSync runs userID's job now, in the background. It returns
// false when the user has no job. A trigger that arrives while the job is
// running is skipped.
func (s *Scheduler) TriggerUserSync(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[userID]
	if !ok || s.cron == nil {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		j.runner.Run()
	}()
	s.logger.Info().Str("user_id", userID).Msg("Triggered sync job")
	return true
}

// GetUserJobStatus returns the status of userID's job.
func (s *Scheduler) GetUserJobStatus(userID string) (*models.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[userID]
	if !ok {
		return nil, false
	}
	return s.statusLocked(j), true
}

// GetAllJobsStatus returns every job's status keyed by job id.
func (s *Scheduler) GetAllJobsStatus() map[string]*models.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*models.JobStatus, len(s.jobs))
	for _, j := range s.jobs {
		out[JobID(j.userID)] = s.statusLocked(j)
	}
	return out
}

func (s *Scheduler) statusLocked(j *job) *models.JobStatus {
	status := &models.JobStatus{
		JobID:   JobID(j.userID),
		Name:    "Trakt Sync - " + j.userID,
		UserID:  j.userID,
		Trigger: "cron[" + j.expr + "]",
		Paused:  j.paused,
	}
	if j.lastRun != nil {
		prev := *j.lastRun
		status.PrevRunTime = &prev
	}
	if !j.paused {
		if entry := s.cron.Entry(j.entryID); entry.Valid() && !entry.Next.IsZero() {
			next := entry.Next
			status.NextRunTime = &next
		}
	}
	return status
}

func (s *Scheduler) addLocked(userID, expr string) {
	schedule, expr := s.resolve(userID, expr)

	j := &job{userID: userID, expr: expr, schedule: schedule}
	if old, ok := s.jobs[userID]; ok {
		if !old.paused {
			s.cron.Remove(old.entryID)
		}
		j.runner = old.runner
		j.lastRun = old.lastRun
	} else {
		j.runner = cron.NewChain(
			cron.Recover(s.cronLog),
			cron.SkipIfStillRunning(s.cronLog),
		).Then(cron.FuncJob(func() { s.runJob(userID) }))
	}
	j.entryID = s.cron.Schedule(schedule, j.runner)
	s.jobs[userID] = j
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))

	s.logger.Info().Str("user_id", userID).Str("interval", expr).Msg("Scheduled sync job")
}

func (s *Scheduler) resolve(userID, expr string) (cron.Schedule, string) {
	if schedule, err := validation.ParseCron(expr); err == nil {
		return schedule, expr
	}
	s.logger.Warn().
		Str("user_id", userID).
		Str("interval", expr).
		Str("default", s.opts.DefaultInterval).
		Msg("Invalid cron expression, using default interval")
	return s.defaultSchedule, s.opts.DefaultInterval
}

func (s *Scheduler) runJob(userID string) {
	s.mu.Lock()
	base := s.ctx
	if j, ok := s.jobs[userID]; ok {
		now := s.now()
		j.lastRun = &now
	}
	s.mu.Unlock()

	if base == nil || base.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(base, userID), s.opts.JobTimeout)
	defer cancel()

	logger := s.logger.With().Str("user_id", userID).Logger()
	outcome := s.execute(ctx, logger, userID)

	metrics.SchedulerExecutions.WithLabelValues(outcome).Inc()
	if s.observe != nil {
		s.observe(userID, outcome)
	}
}

func (s *Scheduler) execute(ctx context.Context, logger zerolog.Logger, userID string) string {
	cred, err := s.creds.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrCredentialNotFound) {
			logger.Warn().Msg("No credential for scheduled sync, skipping")
			return outcomeSkipped
		}
		logger.Error().Err(err).Msg("Failed to load credential for scheduled sync")
		return outcomeFailed
	}
	if !cred.Enabled {
		logger.Debug().Msg("Sync disabled, skipping scheduled run")
		return outcomeSkipped
	}
	if cred.IsExpired(s.now()) && !s.refresher.Refresh(ctx, userID) {
		logger.Warn().Msg("Token refresh failed, skipping scheduled sync")
		return outcomeSkipped
	}

	done := make(chan *models.SyncResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("Scheduled sync panicked")
				done <- nil
			}
		}()
		done <- s.syncer.SyncUser(ctx, userID, false)
	}()

	select {
	case result := <-done:
		if result == nil {
			return outcomePanic
		}
		if s.opts.OnResult != nil {
			s.opts.OnResult(userID, result)
		}
		if !result.Success {
			logger.Warn().Str("message", result.Message).Msg("Scheduled sync failed")
			return outcomeFailed
		}
		logger.Info().
			Int("synced", result.SyncedCount).
			Int("skipped", result.SkippedCount).
			Int("errors", result.ErrorCount).
			Msg("Scheduled sync completed")
		return outcomeCompleted
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Error().Dur("timeout", s.opts.JobTimeout).Msg("Scheduled sync timed out")
			return outcomeTimeout
		}
		logger.Warn().Msg("Scheduled sync canceled")
		return outcomeFailed
	}
}
