// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package api provides the HTTP surface of the presence service: the
// online-user list, connectivity status, heartbeat ingest, health and
// metrics endpoints, and the WebSocket upgrade. Routing uses Chi with
// go-chi/cors and go-chi/httprate from the Chi ecosystem.
package api
