// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package websocket

import (
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

// HubNotifier turns presence transitions into dashboard toasts. It
// implements presence.Notifier; Notify never blocks because the hub's
// broadcast queue drops when full.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier wraps the hub as a transition sink.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// Notify implements presence.Notifier.
func (n *HubNotifier) Notify(kind presence.NotificationKind, displayName string) {
	metrics.PresenceNotifications.WithLabelValues("websocket").Inc()
	n.hub.BroadcastJSON(MessageTypePresenceNotice, PresenceNoticeData{
		Kind:        string(kind),
		DisplayName: displayName,
		Message:     presence.NotificationMessage(kind, displayName),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	n.hub.BroadcastPresenceUpdate()
}
