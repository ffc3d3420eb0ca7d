// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/traktsync/internal/auth"
	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/models"
)

const testUser = "default_user"

type fakeOAuth struct {
	mu sync.Mutex

	initResp *auth.AuthResponse
	initErr  error
	initUser string

	callbackUser string
	callbackErr  error
	callbacks    [][2]string

	disconnectErr error
	disconnected  []string
}

func (f *fakeOAuth) InitOAuth(_ context.Context, userID string) (*auth.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initUser = userID
	return f.initResp, f.initErr
}

func (f *fakeOAuth) HandleCallback(_ context.Context, code, state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, [2]string{code, state})
	return f.callbackUser, f.callbackErr
}

func (f *fakeOAuth) Disconnect(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, userID)
	return f.disconnectErr
}

type memCredentials struct {
	mu      sync.Mutex
	creds   map[string]*models.Credential
	getErr  error
	saveErr error
}

func (m *memCredentials) Get(_ context.Context, userID string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.creds[userID]
	if !ok {
		return nil, models.ErrCredentialNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCredentials) Save(_ context.Context, cred *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *cred
	m.creds[cred.UserID] = &cp
	return nil
}

type fakeLedger struct {
	records   []models.DedupRecord
	count     int
	err       error
	lastLimit int
}

func (f *fakeLedger) History(_ context.Context, _ string, limit int) ([]models.DedupRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeLedger) Count(_ context.Context, _ string) (int, error) {
	return f.count, f.err
}

type startCall struct {
	userID   string
	fullSync bool
}

type fakeTasks struct {
	mu      sync.Mutex
	taskID  string
	started []startCall
	results map[string]*models.SyncResult
	active  map[string]string
	running bool
	last    *models.SyncResult
}

func (f *fakeTasks) StartUserSync(userID string, fullSync bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, startCall{userID, fullSync})
	return f.taskID
}

func (f *fakeTasks) Result(taskID string) (*models.SyncResult, bool) {
	r, ok := f.results[taskID]
	return r, ok
}

func (f *fakeTasks) ActiveTasks() map[string]string {
	return f.active
}

func (f *fakeTasks) IsRunning(string) bool {
	return f.running
}

func (f *fakeTasks) LastResult(string) (*models.SyncResult, bool) {
	return f.last, f.last != nil
}

type fakeScheduler struct {
	mu      sync.Mutex
	running bool
	jobs    map[string]*models.JobStatus
	calls   []string
}

func (f *fakeScheduler) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeScheduler) set(userID, expr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return false
	}
	f.jobs[userID] = &models.JobStatus{
		JobID:   "trakt_sync_" + userID,
		UserID:  userID,
		Trigger: "cron[" + expr + "]",
	}
	return true
}

func (f *fakeScheduler) AddUserJob(userID, expr string) bool {
	f.record("add:" + userID + ":" + expr)
	return f.set(userID, expr)
}

func (f *fakeScheduler) UpdateUserJob(userID, expr string) bool {
	f.record("update:" + userID + ":" + expr)
	return f.set(userID, expr)
}

func (f *fakeScheduler) RemoveUserJob(userID string) bool {
	f.record("remove:" + userID)
	f.mu.Lock()
	delete(f.jobs, userID)
	f.mu.Unlock()
	return true
}

func (f *fakeScheduler) setPaused(userID string, paused bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[userID]
	if !ok {
		return false
	}
	j.Paused = paused
	return true
}

func (f *fakeScheduler) PauseUserJob(userID string) bool {
	return f.setPaused(userID, true)
}

func (f *fakeScheduler) ResumeUserJob(userID string) bool {
	return f.setPaused(userID, false)
}

func (f *fakeScheduler) GetUserJobStatus(userID string) (*models.JobStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[userID]
	return j, ok
}

func (f *fakeScheduler) GetAllJobsStatus() map[string]*models.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*models.JobStatus, len(f.jobs))
	for _, j := range f.jobs {
		out[j.JobID] = j
	}
	return out
}

func (f *fakeScheduler) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type testEnv struct {
	oauth     *fakeOAuth
	creds     *memCredentials
	ledger    *fakeLedger
	tasks     *fakeTasks
	scheduler *fakeScheduler
	handler   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithSecurity(t, &config.SecurityConfig{AuthMode: "none", DefaultUser: testUser})
}

func newTestEnvWithSecurity(t *testing.T, sec *config.SecurityConfig) *testEnv {
	t.Helper()

	e := &testEnv{
		oauth:     &fakeOAuth{},
		creds:     &memCredentials{creds: make(map[string]*models.Credential)},
		ledger:    &fakeLedger{},
		tasks:     &fakeTasks{results: map[string]*models.SyncResult{}, active: map[string]string{}},
		scheduler: &fakeScheduler{running: true, jobs: make(map[string]*models.JobStatus)},
	}

	authn, err := NewAuthenticator(sec)
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true

	h := NewHandler(Dependencies{
		OAuth:       e.oauth,
		Credentials: e.creds,
		Ledger:      e.ledger,
		Tasks:       e.tasks,
		Scheduler:   e.scheduler,
	})
	e.handler = NewRouter(h, authn, NewChiMiddleware(mwCfg)).Setup()
	return e
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// decodeEnvelope checks the status code and decodes data into v when v is
// non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, v interface{}) envelope {
	t.Helper()
	if rec.Code != wantCode {
		t.Fatalf("status code = %d, want %d; body = %s", rec.Code, wantCode, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body = %s", err, rec.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func connectedCredential(userID string) *models.Credential {
	return &models.Credential{
		UserID:       userID,
		AccessToken:  "access",
		RefreshToken: "refresh",
		Enabled:      true,
		SyncInterval: "0 */6 * * *",
	}
}

var errBoom = errors.New("boom")
