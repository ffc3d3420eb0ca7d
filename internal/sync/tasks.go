// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/traktsync/internal/cache"
	"github.com/tomtom215/traktsync/internal/logging"
	"github.com/tomtom215/traktsync/internal/models"
)

const (
	taskResultCapacity = 500
	taskResultTTL      = 24 * time.Hour
)

// UserSyncer runs a single sync for one user.
type UserSyncer interface {
	SyncUser(ctx context.Context, userID string, fullSync bool) *models.SyncResult
}

// TaskRunner executes manual syncs in the background and keeps their
// results for later polling. At most one task runs per user; starting a
// sync for a busy user returns the running task's id.
type TaskRunner struct {
	syncer  UserSyncer
	timeout time.Duration
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	active  map[string]string // taskID -> userID
	byUser  map[string]string // userID -> taskID
	last    map[string]*models.SyncResult
	results *cache.LRU[*models.SyncResult]
}

// NewTaskRunner creates a runner. timeout bounds each task; zero means
// no limit.
func NewTaskRunner(syncer UserSyncer, timeout time.Duration) *TaskRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		syncer:  syncer,
		timeout: timeout,
		logger:  logging.WithComponent("sync_tasks"),
		ctx:     ctx,
		cancel:  cancel,
		active:  make(map[string]string),
		byUser:  make(map[string]string),
		last:    make(map[string]*models.SyncResult),
		results: cache.NewLRU[*models.SyncResult](taskResultCapacity, taskResultTTL),
	}
}

// StartUserSync launches a sync for userID and returns its task id.
func (t *TaskRunner) StartUserSync(userID string, fullSync bool) string {
	t.mu.Lock()
	if taskID, ok := t.byUser[userID]; ok {
		t.mu.Unlock()
		t.logger.Info().Str("user_id", userID).Str("task_id", taskID).Msg("Sync already running, reusing task")
		return taskID
	}
	taskID := uuid.New().String()
	t.active[taskID] = userID
	t.byUser[userID] = taskID
	t.wg.Add(1)
	t.mu.Unlock()

	go t.run(taskID, userID, fullSync)
	return taskID
}

func (t *TaskRunner) run(taskID, userID string, fullSync bool) {
	defer t.wg.Done()

	ctx := logging.ContextWithTaskID(t.ctx, taskID)
	var cancel context.CancelFunc
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	result := t.safeSync(ctx, taskID, userID, fullSync)

	t.mu.Lock()
	delete(t.active, taskID)
	delete(t.byUser, userID)
	t.last[userID] = result
	t.mu.Unlock()
	t.results.Add(taskID, result)
}

func (t *TaskRunner) safeSync(ctx context.Context, taskID, userID string, fullSync bool) (result *models.SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Str("task_id", taskID).Str("user_id", userID).Msg("Sync task panicked")
			result = &models.SyncResult{Message: "sync task panicked", ErrorCount: 1}
		}
	}()
	return t.syncer.SyncUser(ctx, userID, fullSync)
}

// Result returns a finished task's result. ok is false for unknown or
// still running tasks.
func (t *TaskRunner) Result(taskID string) (*models.SyncResult, bool) {
	return t.results.Get(taskID)
}

// ActiveTasks returns running task ids mapped to user ids.
func (t *TaskRunner) ActiveTasks() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.active))
	for k, v := range t.active {
		out[k] = v
	}
	return out
}

// IsRunning reports whether a task is running for userID.
func (t *TaskRunner) IsRunning(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byUser[userID]
	return ok
}

// LastResult returns the most recent finished result for userID.
func (t *TaskRunner) LastResult(userID string) (*models.SyncResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.last[userID]
	return r, ok
}

// Record stores a result produced outside the runner, such as a scheduled
// run, as the user's latest result.
func (t *TaskRunner) Record(userID string, result *models.SyncResult) {
	if result == nil {
		return
	}
	t.mu.Lock()
	t.last[userID] = result
	t.mu.Unlock()
}

// Close cancels running tasks and waits for them to return.
func (t *TaskRunner) Close() {
	t.cancel()
	t.wg.Wait()
}
