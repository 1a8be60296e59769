// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gws "github.com/gorilla/websocket"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
	"github.com/Metrics-Hub/metrics-hub/internal/validation"
	"github.com/Metrics-Hub/metrics-hub/internal/websocket"
)

// OnlineLister serves the cached online-user list.
type OnlineLister interface {
	List() []presence.PresenceRecord
}

// RecordWriter is the heartbeat ingest path into the presence table.
type RecordWriter interface {
	Upsert(ctx context.Context, rec presence.PresenceRecord) error
	MarkOffline(ctx context.Context, userID string, at time.Time) error
	Ping(ctx context.Context) error
}

// RowChangePublisher pushes a row change onto the change feed after
// the store write. May be nil when the feed is disabled; the snapshot
// poll then picks the change up on its own.
type RowChangePublisher interface {
	PublishRowChange(ctx context.Context, ev presence.FeedEvent) error
}

// Handler carries the dependencies of the HTTP endpoints.
type Handler struct {
	snapshot  OnlineLister
	monitor   *presence.ConnectivityMonitor
	store     RecordWriter
	publisher RowChangePublisher
	hub       *websocket.Hub

	upgrader gws.Upgrader
}

// NewHandler wires the endpoint dependencies. publisher may be nil.
func NewHandler(snapshot OnlineLister, monitor *presence.ConnectivityMonitor, store RecordWriter, publisher RowChangePublisher, hub *websocket.Hub) *Handler {
	return &Handler{
		snapshot:  snapshot,
		monitor:   monitor,
		store:     store,
		publisher: publisher,
		hub:       hub,
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// OnlineUser is one row of the online-user list response.
type OnlineUser struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// OnlineUsers handles GET /api/v1/presence/online. The list comes from
// the snapshot cache: it may lag the store briefly, and after a failed
// refresh it serves the last good list rather than an empty one.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	records := h.snapshot.List()
	users := make([]OnlineUser, len(records))
	for i, rec := range records {
		users[i] = OnlineUser{
			UserID:      rec.UserID,
			DisplayName: rec.DisplayName(),
			LastSeenAt:  rec.LastSeenAt,
		}
	}

	rw.Success(map[string]any{
		"users": users,
		"count": len(users),
	})
}

// ConnectivityStatus is the GET /api/v1/connectivity response body.
type ConnectivityStatus struct {
	Online     bool `json:"online"`
	WasOffline bool `json:"was_offline"`
}

// Connectivity handles GET /api/v1/connectivity.
func (h *Handler) Connectivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	online, wasOffline := h.monitor.Status()
	rw.Success(ConnectivityStatus{Online: online, WasOffline: wasOffline})
}

// DismissReconnect handles POST /api/v1/connectivity/dismiss, clearing
// the reconnect banner before its auto-clear fires.
func (h *Handler) DismissReconnect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	h.monitor.Dismiss()
	rw.NoContent()
}

// Heartbeat handles POST /api/v1/presence/heartbeat. It upserts the
// caller's presence row and publishes the change onto the feed. The
// write is what matters; a failed publish is logged and absorbed, the
// snapshot poll and sweep reconcile.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationFailed(apiErr.Message, apiErr.Details)
		return
	}

	now := time.Now().UTC()
	rec := presence.PresenceRecord{
		UserID:     req.UserID,
		UserEmail:  req.UserEmail,
		LastSeenAt: now,
		IsOnline:   req.Online(),
	}

	var err error
	if rec.IsOnline {
		err = h.store.Upsert(r.Context(), rec)
	} else {
		err = h.store.MarkOffline(r.Context(), req.UserID, now)
	}
	if err != nil {
		logging.Error().Err(err).Str("user_id", req.UserID).Msg("heartbeat write failed")
		rw.InternalError("failed to record heartbeat")
		return
	}

	if h.publisher != nil {
		ev := presence.FeedEvent{Type: presence.FeedUpdate, Row: rec}
		if err := h.publisher.PublishRowChange(r.Context(), ev); err != nil {
			logging.Warn().Err(err).Str("user_id", req.UserID).Msg("heartbeat feed publish failed")
		}
	}

	rw.Accepted(map[string]any{
		"user_id":   req.UserID,
		"is_online": rec.IsOnline,
		"seen_at":   now,
	})
}

// Health handles GET /health. Reports degraded with 503 when the
// presence store is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Meta: rw.meta()})
		return
	}

	rw.Success(status)
}

// WebSocket handles GET /ws, upgrading the connection and registering
// the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
