// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package store persists the presence record table in DuckDB.
//
// The table is the authoritative source both the detector's initial
// load and the snapshot loader read from. Writes arrive through the
// heartbeat ingest endpoint; the heartbeat writers themselves are
// external to this service.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/Metrics-Hub/metrics-hub/internal/config"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

const schema = `
CREATE TABLE IF NOT EXISTS presence_records (
	id           VARCHAR PRIMARY KEY,
	user_id      VARCHAR NOT NULL UNIQUE,
	user_email   VARCHAR,
	last_seen_at TIMESTAMP NOT NULL,
	is_online    BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_presence_last_seen ON presence_records (last_seen_at);
`

// Store wraps the DuckDB connection holding the presence table.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the presence database and initializes the
// schema. Use ":memory:" for a fully in-process database.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted
	// network environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open presence database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("init presence schema: %w", err)
	}
	return nil
}

// QueryOnlineSince implements presence.RecordStore: online records with
// last_seen_at at or after since, newest first.
func (s *Store) QueryOnlineSince(ctx context.Context, since time.Time) ([]presence.PresenceRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(user_email, ''), last_seen_at, is_online
		FROM presence_records
		WHERE is_online AND last_seen_at >= ?
		ORDER BY last_seen_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("query online since %s: %w", since.Format(time.RFC3339), err)
	}
	defer func() { _ = rows.Close() }()

	var records []presence.PresenceRecord
	for rows.Next() {
		var rec presence.PresenceRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.UserEmail, &rec.LastSeenAt, &rec.IsOnline); err != nil {
			return nil, fmt.Errorf("scan presence record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert inserts or refreshes the row for rec.UserID.
func (s *Store) Upsert(ctx context.Context, rec presence.PresenceRecord) error {
	if rec.UserID == "" {
		return fmt.Errorf("upsert presence record: empty user_id")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.LastSeenAt.IsZero() {
		rec.LastSeenAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO presence_records (id, user_id, user_email, last_seen_at, is_online)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			user_email   = excluded.user_email,
			last_seen_at = excluded.last_seen_at,
			is_online    = excluded.is_online`,
		rec.ID, rec.UserID, rec.UserEmail, rec.LastSeenAt, rec.IsOnline)
	if err != nil {
		return fmt.Errorf("upsert presence record for %s: %w", rec.UserID, err)
	}
	return nil
}

// MarkOffline records a graceful disconnect for userID. Unknown users
// are a no-op.
func (s *Store) MarkOffline(ctx context.Context, userID string, at time.Time) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE presence_records
		SET is_online = false, last_seen_at = ?
		WHERE user_id = ?`, at, userID)
	if err != nil {
		return fmt.Errorf("mark %s offline: %w", userID, err)
	}
	return nil
}

// Get returns the row for userID, if present.
func (s *Store) Get(ctx context.Context, userID string) (presence.PresenceRecord, bool, error) {
	var rec presence.PresenceRecord
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, user_id, COALESCE(user_email, ''), last_seen_at, is_online
		FROM presence_records WHERE user_id = ?`, userID).
		Scan(&rec.ID, &rec.UserID, &rec.UserEmail, &rec.LastSeenAt, &rec.IsOnline)
	if err == sql.ErrNoRows {
		return presence.PresenceRecord{}, false, nil
	}
	if err != nil {
		return presence.PresenceRecord{}, false, fmt.Errorf("get presence record for %s: %w", userID, err)
	}
	return rec, true, nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
