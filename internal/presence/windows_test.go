// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"context"
	"testing"
	"time"
)

// The sweep window (2m) and the display-list window (3m) are separate
// knobs on purpose. A user silent for 2m30s has already produced an
// offline notification and left the registry, yet still appears in the
// online list until the 3m mark. This test pins that disagreement as
// expected behavior.
func TestDisplayWindowOutlivesSweepWindow(t *testing.T) {
	store := &fakeStore{}
	d, notifier, clk := newTestDetector(t, store)

	loader := NewSnapshotLoader(store, SnapshotConfig{ListStaleAfter: 3 * time.Minute})
	loader.now = clk.now

	initDetector(t, d)

	start := clk.now()
	d.handleEvent(onlineEvent("u1", "ada@example.com", start))
	store.mu.Lock()
	store.records = []PresenceRecord{{
		UserID: "u1", UserEmail: "ada@example.com", LastSeenAt: start, IsOnline: true,
	}}
	store.mu.Unlock()

	// 2m30s of silence: past the sweep window, inside the display window.
	clk.advance(150 * time.Second)
	d.sweep()

	calls := notifier.snapshot()
	if len(calls) != 2 || calls[1] != "offline:ada@example.com" {
		t.Fatalf("notifications = %v, want online then offline for ada", calls)
	}
	if _, ok := d.registry.Get("u1"); ok {
		t.Error("u1 still in registry after sweep")
	}

	loader.Refresh(context.Background())
	list := loader.List()
	if len(list) != 1 || list[0].UserID != "u1" {
		t.Fatalf("List() = %v, want u1 still listed at 2m30s of silence", list)
	}

	// Past the display window the list catches up.
	clk.advance(60 * time.Second)
	loader.Refresh(context.Background())
	if list := loader.List(); len(list) != 0 {
		t.Errorf("List() = %v, want empty after 3m30s of silence", list)
	}
}
