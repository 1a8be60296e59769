// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package main is the entry point for the Metrics Hub presence server.
//
// Metrics Hub tracks which team members are online right now and
// notifies the dashboard the moment someone joins or leaves. It turns
// a noisy heartbeat stream into exactly one notification per
// transition: one "is online" when a user appears, one "went offline"
// when they disconnect or fall silent.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Database: DuckDB presence record store
//  3. WebSocket Hub: real-time notices to connected dashboards
//  4. Presence core: transition detector, snapshot loader, connectivity monitor
//  5. Change feed (optional): embedded NATS JetStream row-change stream
//  6. HTTP Server: REST API, /metrics, /ws
//
// All long-running services run under a suture supervision tree with
// three layers (presence, messaging, api) so a crash in one layer
// restarts only that layer.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (METRICS_HUB_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Example Usage
//
// Single node with the embedded NATS server:
//
//	export METRICS_HUB_NATS_ENABLED=true
//	export METRICS_HUB_NATS_EMBEDDED_SERVER=true
//	./metrics-hub
//
// Against an external NATS cluster:
//
//	export METRICS_HUB_NATS_ENABLED=true
//	export METRICS_HUB_NATS_EMBEDDED_SERVER=false
//	export METRICS_HUB_NATS_URL=nats://nats:4222
//	./metrics-hub
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the change feed and closes NATS components
//   - Closes the database connection
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/api"
	"github.com/Metrics-Hub/metrics-hub/internal/config"
	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
	"github.com/Metrics-Hub/metrics-hub/internal/store"
	"github.com/Metrics-Hub/metrics-hub/internal/supervisor"
	ws "github.com/Metrics-Hub/metrics-hub/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("feed_enabled", cfg.NATS.Enabled).
		Dur("sweep_stale_after", cfg.Presence.SweepStaleAfter).
		Dur("list_stale_after", cfg.Presence.ListStaleAfter).
		Msg("Configuration loaded")

	st, err := store.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Context for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// WebSocket hub must exist before the presence core so transition
	// notices have somewhere to go.
	wsHub := ws.NewHub()

	notifier := presence.MultiNotifier{
		presence.LogNotifier{},
		ws.NewHubNotifier(wsHub),
	}
	var webhook *presence.WebhookNotifier
	if cfg.Notify.WebhookURL != "" {
		webhook = presence.NewWebhookNotifier(presence.WebhookConfig{
			URL:       cfg.Notify.WebhookURL,
			RateLimit: cfg.Notify.WebhookRateLimit,
			Timeout:   cfg.Notify.WebhookTimeout,
		})
		notifier = append(notifier, webhook)
		logging.Info().Str("url", cfg.Notify.WebhookURL).Msg("Webhook notifier registered")
	}

	detector := presence.NewDetector(st, notifier, presence.DetectorConfig{
		SweepStaleAfter: cfg.Presence.SweepStaleAfter,
		SweepInterval:   cfg.Presence.SweepInterval,
	})
	snapshot := presence.NewSnapshotLoader(st, presence.SnapshotConfig{
		ListStaleAfter: cfg.Presence.ListStaleAfter,
		PollInterval:   cfg.Presence.PollInterval,
	})
	monitor := presence.NewConnectivityMonitor(cfg.Presence.ReconnectBannerFor)
	defer monitor.Close()

	// Change feed (optional). When disabled the API still serves the
	// polled online list; only push-driven transitions are lost.
	feedComponents, err := initFeed(ctx, cfg, detector, snapshot, monitor, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize change feed")
	}

	handler := api.NewHandler(snapshot, monitor, st, feedComponents.RowChangePublisher(), wsHub)
	chimw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})
	router := api.NewRouter(handler, chimw)
	server := api.NewServer(&cfg.Server, router.Setup())

	tree.AddPresenceService(detector)
	tree.AddPresenceService(snapshot)
	tree.AddMessagingService(wsHub)
	tree.AddAPIService(server)
	logging.Info().
		Str("addr", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished).
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	feedComponents.Close(closeCtx)
	if webhook != nil {
		webhook.Close()
	}

	logging.Info().Msg("Application stopped gracefully")
}
