// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package validation

import (
	"strings"
	"testing"
)

type scheduleRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	SyncInterval string `json:"sync_interval" validate:"required,cron"`
	Mode         string `koanf:"mode" validate:"oneof=none jwt"`
}

func TestIsValidCron(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want bool
	}{
		{"0 */6 * * *", true},
		{"*/15 * * * *", true},
		{"30 2 * * 1-5", true},
		{"@hourly", true},
		{"", false},
		{"invalid", false},
		{"0 0 * *", false},
		{"61 * * * *", false},
		{"0 0 0 * * *", false},
	}

	for _, tt := range tests {
		if got := IsValidCron(tt.expr); got != tt.want {
			t.Errorf("IsValidCron(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	valid := scheduleRequest{UserID: "alice", SyncInterval: "0 */6 * * *", Mode: "jwt"}
	if err := ValidateStruct(&valid); err != nil {
		t.Fatalf("ValidateStruct(valid) = %v, want nil", err)
	}

	invalid := scheduleRequest{SyncInterval: "every day", Mode: "basic"}
	err := ValidateStruct(&invalid)
	if err == nil {
		t.Fatal("ValidateStruct(invalid) = nil, want error")
	}

	fields := err.Fields()
	if len(fields) != 3 {
		t.Fatalf("got %d field errors (%v), want 3", len(fields), fields)
	}

	msg := err.Error()
	for _, want := range []string{"user_id is required", "sync_interval must be a valid cron expression", "mode must be one of: none jwt"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}
