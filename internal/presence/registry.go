// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import "time"

// KnownUserEntry is the registry's record of a possibly-online user.
type KnownUserEntry struct {
	// Email is the display label; may be empty.
	Email string

	// LastSeen is the timestamp of the last positive observation.
	LastSeen time.Time
}

// DisplayName returns the entry's label, falling back to the user ID.
func (e KnownUserEntry) DisplayName(userID string) string {
	if e.Email != "" {
		return e.Email
	}
	return userID
}

// Registry maps user IDs to KnownUserEntry while those users are
// considered possibly online. It is owned exclusively by the Detector
// and mutated only from the detector's reactor goroutine, so it
// carries no lock. Contents are reset on process restart.
type Registry struct {
	entries map[string]KnownUserEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]KnownUserEntry)}
}

// Get returns the entry for userID, if present.
func (r *Registry) Get(userID string) (KnownUserEntry, bool) {
	e, ok := r.entries[userID]
	return e, ok
}

// Put inserts or replaces the entry for userID.
func (r *Registry) Put(userID string, entry KnownUserEntry) {
	r.entries[userID] = entry
}

// Remove deletes the entry for userID, if present.
func (r *Registry) Remove(userID string) {
	delete(r.entries, userID)
}

// ForEach calls fn for every entry. The iteration order is
// unspecified; callers needing determinism must sort.
func (r *Registry) ForEach(fn func(userID string, entry KnownUserEntry)) {
	for id, e := range r.entries {
		fn(id, e)
	}
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
