// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package config loads and validates the service configuration.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority wins:
//
//  1. Environment variables (PRESENCE_SWEEP_INTERVAL, NATS_URL, ...)
//  2. Optional YAML config file (CONFIG_PATH or ./config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the presence service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	NATS     NATSConfig     `koanf:"nats"`
	Presence PresenceConfig `koanf:"presence"`
	Notify   NotifyConfig   `koanf:"notify"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig holds DuckDB settings for the presence record table.
type DatabaseConfig struct {
	// Path is the DuckDB file path; ":memory:" runs fully in-process.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// NATSConfig holds change-feed transport settings.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	StreamName      string        `koanf:"stream_name"`
	Subject         string        `koanf:"subject"`
	DurableName     string        `koanf:"durable_name"`
	QueueGroup      string        `koanf:"queue_group"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout  time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout    time.Duration `koanf:"close_timeout"`
	RetentionMaxAge time.Duration `koanf:"retention_max_age"`
}

// PresenceConfig holds the presence core's windows and intervals.
//
// SweepStaleAfter and ListStaleAfter are deliberately independent: the
// first governs transition detection, the second the display list. They
// may legitimately disagree about a user in the gap between them.
type PresenceConfig struct {
	// SweepStaleAfter is the silence window after which the sweep
	// declares a user offline.
	SweepStaleAfter time.Duration `koanf:"sweep_stale_after"`

	// ListStaleAfter is the silence window used by the display list
	// filter.
	ListStaleAfter time.Duration `koanf:"list_stale_after"`

	// SweepInterval is how often the staleness sweep runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// PollInterval is the fallback snapshot poll period used when the
	// change feed goes quiet.
	PollInterval time.Duration `koanf:"poll_interval"`

	// ReconnectBannerFor is how long the "reconnected" banner stays up
	// after local connectivity returns.
	ReconnectBannerFor time.Duration `koanf:"reconnect_banner_for"`
}

// NotifyConfig holds transition notification sink settings.
type NotifyConfig struct {
	// WebhookURL, when set, enables the webhook notifier.
	WebhookURL string `koanf:"webhook_url" validate:"omitempty,url"`

	// WebhookRateLimit caps outbound webhook deliveries.
	WebhookRateLimit time.Duration `koanf:"webhook_rate_limit"`

	// WebhookTimeout bounds each delivery attempt.
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration invariants that koanf cannot express.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	if c.Presence.SweepStaleAfter <= 0 {
		return fmt.Errorf("presence.sweep_stale_after must be positive, got %v", c.Presence.SweepStaleAfter)
	}
	if c.Presence.ListStaleAfter <= 0 {
		return fmt.Errorf("presence.list_stale_after must be positive, got %v", c.Presence.ListStaleAfter)
	}
	if c.Presence.SweepInterval <= 0 {
		return fmt.Errorf("presence.sweep_interval must be positive, got %v", c.Presence.SweepInterval)
	}
	if c.Presence.SweepInterval >= c.Presence.SweepStaleAfter {
		return fmt.Errorf("presence.sweep_interval (%v) must be shorter than presence.sweep_stale_after (%v)",
			c.Presence.SweepInterval, c.Presence.SweepStaleAfter)
	}
	if c.Presence.PollInterval <= 0 {
		return fmt.Errorf("presence.poll_interval must be positive, got %v", c.Presence.PollInterval)
	}
	if c.NATS.Enabled && c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url is required when nats.enabled=true and nats.embedded_server=false")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required (use \":memory:\" for in-process)")
	}
	return nil
}
