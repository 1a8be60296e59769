// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package middleware provides infrastructure HTTP middleware: request
// ID propagation, Prometheus instrumentation, and gzip compression.
// CORS and rate limiting come from the Chi ecosystem and are wired in
// the api package.
package middleware
