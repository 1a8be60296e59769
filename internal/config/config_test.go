// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestDefaultWindowsAreIndependent(t *testing.T) {
	cfg := Default()
	if cfg.Presence.SweepStaleAfter != 2*time.Minute {
		t.Errorf("sweep_stale_after = %v, want 2m", cfg.Presence.SweepStaleAfter)
	}
	if cfg.Presence.ListStaleAfter != 3*time.Minute {
		t.Errorf("list_stale_after = %v, want 3m", cfg.Presence.ListStaleAfter)
	}
	// The two windows are configured independently and must never be
	// silently unified.
	if cfg.Presence.SweepStaleAfter == cfg.Presence.ListStaleAfter {
		t.Error("sweep and list staleness windows must stay distinct")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sweep window", func(c *Config) { c.Presence.SweepStaleAfter = 0 }},
		{"zero list window", func(c *Config) { c.Presence.ListStaleAfter = 0 }},
		{"zero sweep interval", func(c *Config) { c.Presence.SweepInterval = 0 }},
		{"sweep interval above window", func(c *Config) {
			c.Presence.SweepInterval = 3 * time.Minute
		}},
		{"zero poll interval", func(c *Config) { c.Presence.PollInterval = 0 }},
		{"nats without url or embedded", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = ""
			c.NATS.EmbeddedServer = false
		}},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad webhook url", func(c *Config) { c.Notify.WebhookURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_RATE_LIMIT_REQS", "server.rate_limit_reqs"},
		{"NATS_EMBEDDED_SERVER", "nats.embedded_server"},
		{"PRESENCE_SWEEP_STALE_AFTER", "presence.sweep_stale_after"},
		{"PRESENCE_LIST_STALE_AFTER", "presence.list_stale_after"},
		{"NOTIFY_WEBHOOK_URL", "notify.webhook_url"},
		{"DATABASE_PATH", "database.path"},
		{"LOGGING_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
		{"UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PRESENCE_SWEEP_INTERVAL", "10s")
	t.Setenv("DATABASE_PATH", ":memory:")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Presence.SweepInterval != 10*time.Second {
		t.Errorf("sweep_interval = %v, want 10s", cfg.Presence.SweepInterval)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("database.path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.NATS.Enabled {
		t.Error("nats.enabled should be false")
	}
}

func TestLoadParsesCORSOriginsList(t *testing.T) {
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DATABASE_PATH", ":memory:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("cors_origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("cors_origins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}
