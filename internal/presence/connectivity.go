// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"sync"
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
)

// ConnectivityMonitor tracks whether this process can reach the
// backbone. It answers "is this client connected", not "which other
// users are online", and is kept strictly separate from the Detector.
//
// IsOnline mirrors the transport's connectivity signal. WasOffline is
// true for a short window after a transition back to online, to drive
// a transient "reconnected" banner, then auto-clears.
type ConnectivityMonitor struct {
	mu         sync.Mutex
	online     bool
	wasOffline bool
	bannerFor  time.Duration
	timer      *time.Timer
}

// NewConnectivityMonitor creates a monitor that keeps the reconnect
// banner up for bannerFor after connectivity returns. The monitor
// starts online: it is constructed right after the transport dialed
// successfully, and an initial connected signal must not raise the
// banner.
func NewConnectivityMonitor(bannerFor time.Duration) *ConnectivityMonitor {
	if bannerFor <= 0 {
		bannerFor = DefaultReconnectBannerFor
	}
	return &ConnectivityMonitor{online: true, bannerFor: bannerFor}
}

// SetOnline records the transport's connectivity signal. A transition
// from offline to online raises the reconnect banner and schedules its
// auto-clear.
func (m *ConnectivityMonitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.online {
		return
	}
	m.online = online

	if online {
		logging.Info().Msg("connectivity restored")
		metrics.ConnectivityOnline.Set(1)
		m.wasOffline = true
		if m.timer != nil {
			m.timer.Stop()
		}
		m.timer = time.AfterFunc(m.bannerFor, m.clearBanner)
		return
	}

	logging.Warn().Msg("connectivity lost")
	metrics.ConnectivityOnline.Set(0)
}

func (m *ConnectivityMonitor) clearBanner() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wasOffline = false
}

// Status returns the current connectivity booleans.
func (m *ConnectivityMonitor) Status() (online, wasOffline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online, m.wasOffline
}

// Dismiss clears the reconnect banner before its auto-clear fires.
func (m *ConnectivityMonitor) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wasOffline = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Close releases the banner timer.
func (m *ConnectivityMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
