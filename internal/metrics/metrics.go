// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package metrics provides Prometheus instrumentation for the presence
// service: transition counts, registry and list sizes, feed health,
// and HTTP request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PresenceTransitions counts detected online/offline transitions.
	PresenceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_transitions_total",
			Help: "Total presence transitions detected, by kind",
		},
		[]string{"kind"}, // online, offline
	)

	// PresenceNotifications counts notification deliveries by sink.
	PresenceNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_notifications_total",
			Help: "Total transition notifications, by sink outcome",
		},
		[]string{"sink"}, // log, hub, webhook, webhook_dropped, webhook_error
	)

	// PresenceRegistrySize tracks the known-online registry size.
	PresenceRegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_registry_size",
			Help: "Current number of users in the known-online registry",
		},
	)

	// PresenceOnlineUsers tracks the display list size. May disagree
	// with presence_registry_size inside the window between the sweep
	// and list staleness thresholds.
	PresenceOnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Current number of users in the online display list",
		},
	)

	// PresenceSweepDuration observes sweep pass latency.
	PresenceSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "presence_sweep_duration_seconds",
			Help:    "Duration of staleness sweep passes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PresenceSnapshotRefreshes counts display list refresh attempts.
	PresenceSnapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_snapshot_refreshes_total",
			Help: "Total snapshot refresh attempts, by result",
		},
		[]string{"result"}, // ok, error
	)

	// PresenceFeedEvents counts change-feed payloads by decode result.
	PresenceFeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_feed_events_total",
			Help: "Total change-feed payloads received, by decode result",
		},
		[]string{"result"}, // ok, invalid
	)

	// PresenceFeedEventsDropped counts events the detector refused.
	PresenceFeedEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_feed_events_dropped_total",
			Help: "Total decoded feed events dropped before processing",
		},
		[]string{"reason"}, // uninitialized, overflow
	)

	// ConnectivityOnline mirrors the local client's reachability.
	ConnectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectivity_online",
			Help: "Whether this instance can reach the messaging backbone (1/0)",
		},
	)

	// WebSocketClients tracks connected dashboard clients.
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	// APIRequestsTotal counts API requests.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// APIRequestDuration observes API request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)
