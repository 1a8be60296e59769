// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

// Package websocket pushes presence updates to connected dashboards.
//
// The hub fans out three message types: presence_notice (one toast per
// detected transition), presence_update (a nudge that the online list
// changed), and connectivity (local reachability changes). Clients that
// cannot keep up are disconnected rather than buffered without bound.
package websocket
