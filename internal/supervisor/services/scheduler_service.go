// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package services

import (
	"context"
	"fmt"
)

// StartStopper matches the scheduler lifecycle.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// SchedulerService runs the job scheduler under supervision.
//
// A failed Start (the credential store could not be listed) is returned so
// suture restarts the service with backoff.
type SchedulerService struct {
	scheduler StartStopper
	name      string
}

// NewSchedulerService wraps scheduler.
func NewSchedulerService(scheduler StartStopper) *SchedulerService {
	return &SchedulerService{scheduler: scheduler, name: "scheduler"}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

func (s *SchedulerService) String() string {
	return s.name
}
