// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"context"
	"time"
)

// Default windows and intervals. SweepStaleAfter and ListStaleAfter are
// two distinct knobs: the first drives transition detection, the second
// the display list filter. They are configured independently and must
// not be unified.
const (
	// DefaultSweepStaleAfter is the silence window after which the
	// sweep declares a user offline.
	DefaultSweepStaleAfter = 2 * time.Minute

	// DefaultListStaleAfter is the silence window used by the display
	// list filter.
	DefaultListStaleAfter = 3 * time.Minute

	// DefaultSweepInterval is how often the staleness sweep runs.
	DefaultSweepInterval = 5 * time.Second

	// DefaultPollInterval is the fallback snapshot poll period.
	DefaultPollInterval = 60 * time.Second

	// DefaultReconnectBannerFor is how long the "reconnected" banner
	// stays up after local connectivity returns.
	DefaultReconnectBannerFor = 5 * time.Second
)

// PresenceRecord is one row of the presence table. The heartbeat writer
// (external to this service) upserts a row per active user session and
// makes a best-effort is_online=false write on graceful logout.
type PresenceRecord struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsOnline   bool      `json:"is_online"`
}

// DisplayName returns the human-readable label for the record's user.
func (r PresenceRecord) DisplayName() string {
	if r.UserEmail != "" {
		return r.UserEmail
	}
	return r.UserID
}

// RecordStore is the read path into the presence table: a point query
// with a time lower bound and an is_online equality filter, ordered by
// last_seen_at descending.
type RecordStore interface {
	QueryOnlineSince(ctx context.Context, since time.Time) ([]PresenceRecord, error)
}

// NotificationKind distinguishes the two transition directions.
type NotificationKind string

const (
	// NotificationOnline is emitted when a user transitions to online.
	NotificationOnline NotificationKind = "online"

	// NotificationOffline is emitted when a user transitions to offline.
	NotificationOffline NotificationKind = "offline"
)

// Notifier receives one call per detected transition. Delivery is
// fire-and-forget to a display surface owned by the UI layer; there is
// no return value and no retry. Implementations must not block the
// caller.
type Notifier interface {
	Notify(kind NotificationKind, displayName string)
}
