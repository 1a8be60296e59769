// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSnapshotRefreshUpdatesList(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []PresenceRecord{
		{UserID: "u1", LastSeenAt: base.Add(-time.Minute), IsOnline: true},
		{UserID: "u2", LastSeenAt: base.Add(-4 * time.Minute), IsOnline: true},
	}}

	l := NewSnapshotLoader(store, SnapshotConfig{ListStaleAfter: 3 * time.Minute})
	l.now = func() time.Time { return base }

	l.Refresh(context.Background())

	got := l.List()
	if len(got) != 1 || got[0].UserID != "u1" {
		t.Errorf("List() = %+v, want only u1", got)
	}
}

func TestSnapshotKeepsPreviousListOnFailure(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []PresenceRecord{
		{UserID: "u1", LastSeenAt: base, IsOnline: true},
	}}

	l := NewSnapshotLoader(store, SnapshotConfig{})
	l.now = func() time.Time { return base }

	l.Refresh(context.Background())
	if got := l.List(); len(got) != 1 {
		t.Fatalf("initial List() = %+v", got)
	}

	store.mu.Lock()
	store.err = errors.New("backend down")
	store.mu.Unlock()

	l.Refresh(context.Background())

	got := l.List()
	if len(got) != 1 || got[0].UserID != "u1" {
		t.Errorf("List() after failed refresh = %+v, want stale u1", got)
	}
}

func TestSnapshotListReturnsCopy(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []PresenceRecord{
		{UserID: "u1", UserEmail: "a@example.com", LastSeenAt: base, IsOnline: true},
	}}

	l := NewSnapshotLoader(store, SnapshotConfig{})
	l.now = func() time.Time { return base }
	l.Refresh(context.Background())

	first := l.List()
	first[0].UserEmail = "mutated"

	if got := l.List(); got[0].UserEmail != "a@example.com" {
		t.Errorf("caller mutation leaked into cache: %+v", got)
	}
}

func TestSnapshotKickCoalesces(t *testing.T) {
	l := NewSnapshotLoader(&fakeStore{}, SnapshotConfig{})

	l.Kick()
	l.Kick()
	l.Kick()

	if len(l.kick) != 1 {
		t.Errorf("pending kicks = %d, want 1", len(l.kick))
	}
}

func TestSnapshotServeRefreshesOnKick(t *testing.T) {
	store := &fakeStore{}
	l := NewSnapshotLoader(store, SnapshotConfig{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	waitForCalls := func(n int) {
		deadline := time.After(time.Second)
		for {
			store.mu.Lock()
			calls := store.calls
			store.mu.Unlock()
			if calls >= n {
				return
			}
			select {
			case <-deadline:
				t.Fatalf("store calls = %d, want >= %d", calls, n)
			case <-time.After(time.Millisecond):
			}
		}
	}

	waitForCalls(1) // initial refresh
	l.Kick()
	waitForCalls(2)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestSnapshotBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := &fakeStore{err: errors.New("backend down")}
	l := NewSnapshotLoader(store, SnapshotConfig{})

	for i := 0; i < 6; i++ {
		l.Refresh(context.Background())
	}

	store.mu.Lock()
	calls := store.calls
	store.mu.Unlock()
	if calls >= 6 {
		t.Errorf("store calls = %d, want breaker to short-circuit after 5 failures", calls)
	}
}
