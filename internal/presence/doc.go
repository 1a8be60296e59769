// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package presence tracks which users are currently online and emits
// exactly one notification per online/offline transition.
//
// The input is a noisy, possibly duplicated, possibly out-of-order
// stream of "last seen" row changes plus a periodic fallback poll. Two
// independent consumers sit on top of the same presence table:
//
//   - Detector owns an in-memory registry of known-online users and
//     decides when a transition happened. It never notifies during its
//     initial load, never notifies twice for repeated heartbeats, and
//     catches silent disconnects with a periodic staleness sweep.
//   - SnapshotLoader serves the cached "who's online now" list to the
//     dashboard. It uses its own, wider staleness window; the list and
//     the notification state may legitimately disagree about a user in
//     the gap between the two windows.
//
// All registry mutation happens on the Detector's single reactor
// goroutine, so the registry carries no lock. The feed path and the
// sweep converge on the same registry and notifier, and their effects
// commute: interleaving feed events and sweep firings in any valid
// order yields the same notification sequence.
//
// ConnectivityMonitor is a separate concern: it tracks whether this
// process itself can reach the backbone, not which remote users are
// online.
package presence
