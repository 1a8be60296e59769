// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"context"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
)

// SnapshotConfig holds the display list's window and poll period.
type SnapshotConfig struct {
	// ListStaleAfter is the display filter window. Deliberately wider
	// than the detector's sweep window; the two are separate knobs.
	// Default: DefaultListStaleAfter.
	ListStaleAfter time.Duration

	// PollInterval is the fallback poll period used when the change
	// feed goes quiet. Default: DefaultPollInterval.
	PollInterval time.Duration
}

// SnapshotLoader serves the cached "who's online now" list. It
// refreshes on every change-feed event (via Kick) and on a coarse poll
// timer as a fallback if the feed silently stops delivering. A failed
// refresh keeps the previously served list; the list degrades to stale
// rather than empty.
//
// The loader holds its own cache, independent of the detector's
// registry: it serves a different staleness window and a different
// consumer.
type SnapshotLoader struct {
	store RecordStore
	cfg   SnapshotConfig
	now   func() time.Time

	breaker *gobreaker.CircuitBreaker[[]PresenceRecord]

	mu     sync.RWMutex
	cached []PresenceRecord

	kick chan struct{}
}

// NewSnapshotLoader creates a loader over the given store.
func NewSnapshotLoader(store RecordStore, cfg SnapshotConfig) *SnapshotLoader {
	if cfg.ListStaleAfter <= 0 {
		cfg.ListStaleAfter = DefaultListStaleAfter
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	breaker := gobreaker.NewCircuitBreaker[[]PresenceRecord](gobreaker.Settings{
		Name:        "presence-snapshot",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("snapshot circuit breaker state change")
		},
	})

	return &SnapshotLoader{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		breaker: breaker,
		kick:    make(chan struct{}, 1),
	}
}

// List returns the cached online-user list, ordered by last_seen_at
// descending. The returned slice is a copy.
func (l *SnapshotLoader) List() []PresenceRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]PresenceRecord, len(l.cached))
	copy(out, l.cached)
	return out
}

// Kick requests an immediate refresh. Called for every change-feed
// event, whichever row changed. Coalesces when a refresh is already
// pending.
func (l *SnapshotLoader) Kick() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Serve runs the refresh loop until ctx is canceled. It implements
// suture.Service. The poll ticker is released on return.
func (l *SnapshotLoader) Serve(ctx context.Context) error {
	l.Refresh(ctx)

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.kick:
			l.Refresh(ctx)
		case <-ticker.C:
			l.Refresh(ctx)
		}
	}
}

// Refresh re-queries the store and swaps in the new list. On failure
// the previous list is retained untouched and the error is logged;
// nothing is surfaced to the caller.
func (l *SnapshotLoader) Refresh(ctx context.Context) {
	since := l.now().Add(-l.cfg.ListStaleAfter)
	records, err := l.breaker.Execute(func() ([]PresenceRecord, error) {
		return l.store.QueryOnlineSince(ctx, since)
	})
	if err != nil {
		metrics.PresenceSnapshotRefreshes.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Msg("snapshot refresh failed, serving previous list")
		return
	}

	l.mu.Lock()
	l.cached = records
	l.mu.Unlock()
	metrics.PresenceSnapshotRefreshes.WithLabelValues("ok").Inc()
	metrics.PresenceOnlineUsers.Set(float64(len(records)))
}
