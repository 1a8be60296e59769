// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package feed

import (
	"fmt"

	natsgo "github.com/nats-io/nats.go"

	"github.com/Metrics-Hub/metrics-hub/internal/config"
	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

// Probe holds a dedicated NATS connection whose only job is to drive
// the connectivity monitor. It rides the client's disconnect and
// reconnect callbacks instead of active polling; the transport already
// knows when the backbone is unreachable.
type Probe struct {
	conn    *natsgo.Conn
	monitor *presence.ConnectivityMonitor
}

// NewProbe dials url and wires the connection callbacks to monitor.
// The monitor starts online, so the successful initial dial raises no
// banner.
func NewProbe(cfg *config.NATSConfig, url string, monitor *presence.ConnectivityMonitor) (*Probe, error) {
	conn, err := natsgo.Connect(url,
		natsgo.Name("metrics-hub-connectivity"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			logging.Warn().Err(err).Msg("connectivity probe disconnected")
			monitor.SetOnline(false)
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("connectivity probe reconnected")
			monitor.SetOnline(true)
		}),
		natsgo.ClosedHandler(func(_ *natsgo.Conn) {
			monitor.SetOnline(false)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial connectivity probe: %w", err)
	}

	return &Probe{conn: conn, monitor: monitor}, nil
}

// Conn exposes the underlying connection for stream management.
func (p *Probe) Conn() *natsgo.Conn {
	return p.conn
}

// Close drains and closes the probe connection without flagging the
// monitor offline.
func (p *Probe) Close() {
	p.conn.SetClosedHandler(nil)
	p.conn.Close()
}
