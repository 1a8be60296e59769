// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package feed carries presence row changes over NATS JetStream.
//
// The heartbeat ingest path publishes one message per presence row
// change; the bridge subscribes, validates each payload at the
// boundary, and hands the resulting events to the transition detector
// and the snapshot loader. The feed is best-effort: delivery gaps are
// reconciled by the detector's staleness sweep and the snapshot
// loader's fallback poll, so no replay or backfill happens here.
//
// For single-instance deployments an embedded NATS server can be run
// in-process; otherwise the package connects to an external cluster.
package feed
