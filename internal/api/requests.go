// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package api

// HeartbeatRequest is the body of POST /api/v1/presence/heartbeat.
// Dashboard sessions post one per interval while open, and a
// best-effort status=offline on graceful logout.
type HeartbeatRequest struct {
	UserID    string `json:"user_id" validate:"required,max=128"`
	UserEmail string `json:"user_email" validate:"omitempty,email"`
	Status    string `json:"status" validate:"omitempty,oneof=online offline"`
}

// Online reports whether the heartbeat is a positive observation.
// Absent status defaults to online; only an explicit "offline" is a
// logout signal.
func (r HeartbeatRequest) Online() bool {
	return r.Status != "offline"
}
