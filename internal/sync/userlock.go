// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package sync

import (
	"context"
	"sync"
)

// userLocks serializes runs per user. Each user has a one-slot semaphore;
// entries are dropped once no run holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	slots map[string]*userSlot
}

type userSlot struct {
	sem  chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{slots: make(map[string]*userSlot)}
}

// acquire blocks until userID's slot is free or ctx is done. The returned
// release must be called exactly once on success.
func (l *userLocks) acquire(ctx context.Context, userID string) (release func(), err error) {
	l.mu.Lock()
	slot, ok := l.slots[userID]
	if !ok {
		slot = &userSlot{sem: make(chan struct{}, 1)}
		l.slots[userID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	// A free slot wins even when ctx is already done.
	select {
	case slot.sem <- struct{}{}:
	default:
		select {
		case slot.sem <- struct{}{}:
		case <-ctx.Done():
			l.unref(userID, slot)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.unref(userID, slot)
		})
	}, nil
}

func (l *userLocks) unref(userID string, slot *userSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, userID)
	}
}

func (l *userLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
