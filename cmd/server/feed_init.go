// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/api"
	"github.com/Metrics-Hub/metrics-hub/internal/config"
	"github.com/Metrics-Hub/metrics-hub/internal/feed"
	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
	"github.com/Metrics-Hub/metrics-hub/internal/supervisor"
)

// FeedComponents holds the NATS change-feed wiring. A nil receiver is
// valid and means the feed is disabled.
type FeedComponents struct {
	embedded   *feed.EmbeddedServer
	probe      *feed.Probe
	publisher  *feed.Publisher
	subscriber *feed.Subscriber
}

// initFeed wires the JetStream change feed when NATS is enabled:
// embedded server (optional), connectivity probe, stream provisioning,
// publisher, and the subscriber bridge that drives the detector.
// Returns nil components when the feed is disabled.
func initFeed(
	ctx context.Context,
	cfg *config.Config,
	detector *presence.Detector,
	snapshot *presence.SnapshotLoader,
	monitor *presence.ConnectivityMonitor,
	tree *supervisor.Tree,
) (*FeedComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Change feed disabled (NATS_ENABLED=false), presence list is poll-only")
		return nil, nil
	}

	c := &FeedComponents{}

	url := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := feed.NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("starting embedded NATS server: %w", err)
		}
		c.embedded = embedded
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	probe, err := feed.NewProbe(&cfg.NATS, url, monitor)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("dialing NATS connectivity probe: %w", err)
	}
	c.probe = probe

	streams, err := feed.NewStreamManager(probe.Conn(), &cfg.NATS)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("creating stream manager: %w", err)
	}
	ensureCtx, ensureCancel := context.WithTimeout(ctx, 30*time.Second)
	defer ensureCancel()
	if _, err := streams.EnsureStream(ensureCtx); err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("provisioning stream %q: %w", cfg.NATS.StreamName, err)
	}

	wmLogger := feed.NewWatermillLogger()

	publisher, err := feed.NewPublisher(&cfg.NATS, url, wmLogger)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("creating feed publisher: %w", err)
	}
	c.publisher = publisher

	subscriber, err := feed.NewSubscriber(&cfg.NATS, url, wmLogger)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("creating feed subscriber: %w", err)
	}
	c.subscriber = subscriber

	tree.AddMessagingService(feed.NewBridge(subscriber, detector, snapshot))
	logging.Info().
		Str("stream", cfg.NATS.StreamName).
		Str("subject", cfg.NATS.Subject).
		Msg("Change feed bridge added to supervisor tree")

	return c, nil
}

// RowChangePublisher exposes the publisher to the API layer. Returns a
// nil interface when the feed is disabled so the handler skips
// publishing entirely.
func (c *FeedComponents) RowChangePublisher() api.RowChangePublisher {
	if c == nil || c.publisher == nil {
		return nil
	}
	return c.publisher
}

// Close releases feed resources in reverse dependency order. Safe on a
// nil or partially initialized receiver.
func (c *FeedComponents) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feed subscriber")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feed publisher")
		}
	}
	if c.probe != nil {
		c.probe.Close()
	}
	if c.embedded != nil {
		if err := c.embedded.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
