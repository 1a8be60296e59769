// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

type stubStore struct{}

func (stubStore) QueryOnlineSince(context.Context, time.Time) ([]presence.PresenceRecord, error) {
	return nil, nil
}

type stubSource struct {
	ch  chan *message.Message
	err error
}

func (s *stubSource) Subscribe(context.Context) (<-chan *message.Message, error) {
	return s.ch, s.err
}

func startDetector(t *testing.T) (*presence.Detector, context.CancelFunc) {
	t.Helper()
	d := presence.NewDetector(stubStore{}, nil, presence.DetectorConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Serve(ctx) }()

	deadline := time.After(time.Second)
	for !d.Initialized() {
		select {
		case <-deadline:
			t.Fatal("detector never initialized")
		case <-time.After(time.Millisecond):
		}
	}
	return d, cancel
}

func TestBridgeAcksValidAndInvalidPayloads(t *testing.T) {
	d, stop := startDetector(t)
	defer stop()

	snapshot := presence.NewSnapshotLoader(stubStore{}, presence.SnapshotConfig{})
	source := &stubSource{ch: make(chan *message.Message, 2)}
	bridge := NewBridge(source, d, snapshot)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Serve(ctx) }()

	valid := message.NewMessage("m1", []byte(`{"type":"update","new_row":{"user_id":"u1","is_online":true}}`))
	invalid := message.NewMessage("m2", []byte(`{"type":"update","new_row":{"is_online":true}}`))
	source.ch <- valid
	source.ch <- invalid

	for _, msg := range []*message.Message{valid, invalid} {
		select {
		case <-msg.Acked():
		case <-time.After(time.Second):
			t.Fatalf("message %s never acked", msg.UUID)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestBridgeReturnsErrorWhenSubscribeFails(t *testing.T) {
	d, stop := startDetector(t)
	defer stop()

	snapshot := presence.NewSnapshotLoader(stubStore{}, presence.SnapshotConfig{})
	source := &stubSource{err: errors.New("no stream")}
	bridge := NewBridge(source, d, snapshot)

	if err := bridge.Serve(context.Background()); err == nil {
		t.Error("Serve() succeeded with failing source")
	}
}

// The bridge does not reconnect on its own. A closed feed surfaces as
// a Serve error so the supervisor restarts the bridge; between
// restarts the NATS client's reconnect logic and the snapshot
// loader's 60s poll are the only recovery paths. That gap is accepted
// behavior, not an oversight.
func TestBridgeReturnsWhenFeedCloses(t *testing.T) {
	d, stop := startDetector(t)
	defer stop()

	snapshot := presence.NewSnapshotLoader(stubStore{}, presence.SnapshotConfig{})
	source := &stubSource{ch: make(chan *message.Message)}
	bridge := NewBridge(source, d, snapshot)

	done := make(chan error, 1)
	go func() { done <- bridge.Serve(context.Background()) }()

	close(source.ch)

	select {
	case err := <-done:
		if err == nil {
			t.Error("Serve() returned nil after feed closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() never returned after feed closed")
	}
}
