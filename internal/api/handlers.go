// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/traktsync/internal/auth"
	"github.com/tomtom215/traktsync/internal/models"
	"github.com/tomtom215/traktsync/internal/validation"
)

// OAuthService runs the Trakt authorization flow.
type OAuthService interface {
	InitOAuth(ctx context.Context, userID string) (*auth.AuthResponse, error)
	HandleCallback(ctx context.Context, code, state string) (string, error)
	Disconnect(ctx context.Context, userID string) error
}

// CredentialStore reads and writes per-user credentials.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
}

// SyncLedger exposes the dedup ledger.
type SyncLedger interface {
	History(ctx context.Context, userID string, limit int) ([]models.DedupRecord, error)
	Count(ctx context.Context, userID string) (int, error)
}

// TaskRunner runs manual syncs in the background.
type TaskRunner interface {
	StartUserSync(userID string, fullSync bool) string
	Result(taskID string) (*models.SyncResult, bool)
	ActiveTasks() map[string]string
	IsRunning(userID string) bool
	LastResult(userID string) (*models.SyncResult, bool)
}

// JobScheduler manages the per-user cron jobs.
type JobScheduler interface {
	AddUserJob(userID, expr string) bool
	UpdateUserJob(userID, expr string) bool
	RemoveUserJob(userID string) bool
	PauseUserJob(userID string) bool
	ResumeUserJob(userID string) bool
	GetUserJobStatus(userID string) (*models.JobStatus, bool)
	GetAllJobsStatus() map[string]*models.JobStatus
}

// Dependencies are the services the handlers operate on.
type Dependencies struct {
	OAuth       OAuthService
	Credentials CredentialStore
	Ledger      SyncLedger
	Tasks       TaskRunner
	Scheduler   JobScheduler

	// UIBaseURL prefixes the redirects issued by the OAuth callback.
	UIBaseURL string
}

// Handler serves the Trakt API endpoints.
//
// Handler methods are split across files:
//   - handlers_auth.go: OAuth init, callback and disconnect
//   - handlers_config.go: per-user sync configuration
//   - handlers_sync.go: status, manual sync, tasks and history
//   - handlers_jobs.go: scheduler job inspection and control
//   - handlers_health.go: liveness
type Handler struct {
	oauth     OAuthService
	creds     CredentialStore
	ledger    SyncLedger
	tasks     TaskRunner
	scheduler JobScheduler
	uiBaseURL string
	now       func() time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		oauth:     deps.OAuth,
		creds:     deps.Credentials,
		ledger:    deps.Ledger,
		tasks:     deps.Tasks,
		scheduler: deps.Scheduler,
		uiBaseURL: deps.UIBaseURL,
		now:       time.Now,
	}
}

// loadCredential returns the user's credential, or nil when none is stored.
func (h *Handler) loadCredential(ctx context.Context, userID string) (*models.Credential, error) {
	cred, err := h.creds.Get(ctx, userID)
	if errors.Is(err, models.ErrCredentialNotFound) {
		return nil, nil
	}
	return cred, err
}

// decodeJSON decodes an optional JSON body into v and validates it. An
// empty body leaves v untouched. It writes the error response and returns
// false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		respondValidationError(w, "request body too large", nil)
		return false
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			respondValidationError(w, "invalid JSON body", nil)
			return false
		}
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		details := make(map[string]interface{}, len(verr.Errors()))
		for _, fe := range verr.Errors() {
			details[fe.Field] = fe.Message
		}
		respondValidationError(w, verr.Error(), details)
		return false
	}
	return true
}
