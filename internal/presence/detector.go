// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
)

// DetectorConfig holds the detector's windows and intervals.
type DetectorConfig struct {
	// SweepStaleAfter is the silence window after which a known user
	// is declared offline. Default: DefaultSweepStaleAfter.
	SweepStaleAfter time.Duration

	// SweepInterval is how often the staleness sweep runs.
	// Default: DefaultSweepInterval.
	SweepInterval time.Duration

	// EventBuffer is the feed event channel capacity. Default: 256.
	EventBuffer int
}

// Detector is the transition state machine. Per user it knows two
// states, unknown and known-online; known-online expires through the
// staleness sweep rather than a timer per user.
//
// Three producers feed one reactor goroutine: the initial snapshot
// load, the change-feed channel, and the sweep ticker. Each reaction
// runs to completion before the next, which is what lets the registry
// go lock-free. No ordering is assumed between producers; the
// event-path and the sweep commute on the registry and the notifier.
type Detector struct {
	store    RecordStore
	registry *Registry
	notifier Notifier
	cfg      DetectorConfig

	// now is injectable for tests.
	now func() time.Time

	events      chan FeedEvent
	initialized atomic.Bool
}

// NewDetector creates a detector over the given store and notifier.
// The registry is created and owned by the detector; no other
// component reads or writes it.
func NewDetector(store RecordStore, notifier Notifier, cfg DetectorConfig) *Detector {
	if cfg.SweepStaleAfter <= 0 {
		cfg.SweepStaleAfter = DefaultSweepStaleAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	return &Detector{
		store:    store,
		registry: NewRegistry(),
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		events:   make(chan FeedEvent, cfg.EventBuffer),
	}
}

// Initialized reports whether the initial silent load has completed.
func (d *Detector) Initialized() bool {
	return d.initialized.Load()
}

// Offer hands a change-feed event to the reactor. Events arriving
// before initialization completes are dropped entirely, as are events
// that would overflow the buffer; the sweep and the snapshot poll
// reconcile anything lost.
func (d *Detector) Offer(ev FeedEvent) {
	if !d.initialized.Load() {
		metrics.PresenceFeedEventsDropped.WithLabelValues("uninitialized").Inc()
		return
	}
	select {
	case d.events <- ev:
	default:
		metrics.PresenceFeedEventsDropped.WithLabelValues("overflow").Inc()
	}
}

// Serve runs the reactor until ctx is canceled. It implements
// suture.Service. The sweep ticker is released on return.
func (d *Detector) Serve(ctx context.Context) error {
	if err := d.initialLoad(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-d.events:
			d.handleEvent(ev)
		case <-ticker.C:
			d.sweep()
		}
	}
}

// initialLoad seeds the registry with every user seen within the
// staleness window, without notifying. Retried until it succeeds so a
// failed first query cannot cause a notification storm for users who
// were already online.
func (d *Detector) initialLoad(ctx context.Context) error {
	for {
		since := d.now().Add(-d.cfg.SweepStaleAfter)
		records, err := d.store.QueryOnlineSince(ctx, since)
		if err == nil {
			for _, rec := range records {
				d.registry.Put(rec.UserID, KnownUserEntry{
					Email:    rec.UserEmail,
					LastSeen: rec.LastSeenAt,
				})
			}
			d.initialized.Store(true)
			metrics.PresenceRegistrySize.Set(float64(d.registry.Len()))
			logging.Info().Int("known_online", d.registry.Len()).Msg("presence detector initialized")
			return nil
		}

		logging.Error().Err(err).Msg("initial presence load failed, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("presence detector init: %w", ctx.Err())
		case <-time.After(d.cfg.SweepInterval):
		}
	}
}

// handleEvent applies one change-feed event to the registry.
//
// Offline events only matter for known users; a user cannot go offline
// from unknown. Online events notify when the user is new or was
// silent past the staleness window, and always refresh the entry so
// repeated heartbeats advance the timestamp without renotifying.
func (d *Detector) handleEvent(ev FeedEvent) {
	userID := ev.Row.UserID
	if userID == "" {
		return
	}

	if !ev.Online() {
		entry, known := d.registry.Get(userID)
		if !known {
			return
		}
		d.notify(NotificationOffline, entry.DisplayName(userID))
		d.registry.Remove(userID)
		metrics.PresenceRegistrySize.Set(float64(d.registry.Len()))
		return
	}

	now := d.now()
	entry, wasKnown := d.registry.Get(userID)
	wasOffline := wasKnown && now.Sub(entry.LastSeen) > d.cfg.SweepStaleAfter

	if !wasKnown || wasOffline {
		rec := ev.Row
		d.notify(NotificationOnline, rec.DisplayName())
	}

	lastSeen := ev.Row.LastSeenAt
	if lastSeen.IsZero() {
		lastSeen = now
	}
	d.registry.Put(userID, KnownUserEntry{Email: ev.Row.UserEmail, LastSeen: lastSeen})
	metrics.PresenceRegistrySize.Set(float64(d.registry.Len()))
}

// sweep declares every over-window entry offline. This is the only
// path that catches a client which crashed or lost its network without
// a graceful is_online=false write. Stale users are notified in user
// ID order so the notification sequence is deterministic.
func (d *Detector) sweep() {
	start := d.now()
	cutoff := start.Add(-d.cfg.SweepStaleAfter)

	var stale []string
	d.registry.ForEach(func(userID string, entry KnownUserEntry) {
		if entry.LastSeen.Before(cutoff) {
			stale = append(stale, userID)
		}
	})
	sort.Strings(stale)

	for _, userID := range stale {
		entry, _ := d.registry.Get(userID)
		d.notify(NotificationOffline, entry.DisplayName(userID))
		d.registry.Remove(userID)
	}

	if len(stale) > 0 {
		metrics.PresenceRegistrySize.Set(float64(d.registry.Len()))
		logging.Debug().Int("stale", len(stale)).Msg("sweep removed stale users")
	}
	metrics.PresenceSweepDuration.Observe(time.Since(start).Seconds())
}

func (d *Detector) notify(kind NotificationKind, displayName string) {
	metrics.PresenceTransitions.WithLabelValues(string(kind)).Inc()
	logging.Info().Str("kind", string(kind)).Str("user", displayName).Msg("presence transition")
	if d.notifier != nil {
		d.notifier.Notify(kind, displayName)
	}
}
