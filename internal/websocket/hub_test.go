// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, buffer),
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Serve(ctx) }()
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for hub.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	client := newTestClient(hub, 8)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// The hub closes the send channel on unregister.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel delivered a message instead of closing")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	a := newTestClient(hub, 8)
	b := newTestClient(hub, 8)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	hub.BroadcastJSON(MessageTypePresenceUpdate, nil)

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypePresenceUpdate {
				t.Errorf("message type = %s, want %s", msg.Type, MessageTypePresenceUpdate)
			}
		case <-time.After(time.Second):
			t.Fatal("client never received broadcast")
		}
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	slow := newTestClient(hub, 1)
	hub.Register <- slow
	waitForClients(t, hub, 1)

	// First fill the buffer, then overflow it.
	hub.BroadcastJSON(MessageTypePresenceUpdate, nil)
	hub.BroadcastJSON(MessageTypePresenceUpdate, nil)

	waitForClients(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()

	client := newTestClient(hub, 8)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d after shutdown", hub.ClientCount())
	}
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel delivered a message instead of closing")
		}
	default:
		t.Error("send channel not closed after shutdown")
	}
}

func TestHubNotifierBroadcastsToast(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	client := newTestClient(hub, 8)
	hub.Register <- client
	waitForClients(t, hub, 1)

	NewHubNotifier(hub).Notify(presence.NotificationOnline, "alice@example.com")

	var got []Message
	deadline := time.After(time.Second)
	for len(got) < 2 {
		select {
		case msg := <-client.send:
			got = append(got, msg)
		case <-deadline:
			t.Fatalf("received %d messages, want 2", len(got))
		}
	}

	if got[0].Type != MessageTypePresenceNotice {
		t.Errorf("first message type = %s, want %s", got[0].Type, MessageTypePresenceNotice)
	}
	notice, ok := got[0].Data.(PresenceNoticeData)
	if !ok {
		t.Fatalf("notice data type = %T", got[0].Data)
	}
	if notice.Kind != "online" || notice.Message != "alice@example.com is online" {
		t.Errorf("notice = %+v", notice)
	}
	if got[1].Type != MessageTypePresenceUpdate {
		t.Errorf("second message type = %s, want %s", got[1].Type, MessageTypePresenceUpdate)
	}
}

func TestHubBroadcastConnectivity(t *testing.T) {
	hub, stop := startHub(t)
	defer stop()

	client := newTestClient(hub, 8)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.BroadcastConnectivity(true, true)

	select {
	case msg := <-client.send:
		data, ok := msg.Data.(ConnectivityData)
		if !ok {
			t.Fatalf("data type = %T", msg.Data)
		}
		if !data.Online || !data.WasOffline {
			t.Errorf("data = %+v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("connectivity message never arrived")
	}
}
