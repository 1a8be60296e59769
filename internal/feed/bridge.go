// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package feed

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
	"github.com/Metrics-Hub/metrics-hub/internal/presence"
)

// FeedSource abstracts the subscriber for the bridge.
type FeedSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Bridge drains the change feed into the presence core. Every message
// is acked regardless of outcome: the feed is best-effort and a
// malformed or dropped payload is reconciled by the sweep and the
// snapshot poll, so redelivery would only replay noise.
type Bridge struct {
	source   FeedSource
	detector *presence.Detector
	snapshot *presence.SnapshotLoader
}

// NewBridge wires a feed source to the detector and snapshot loader.
func NewBridge(source FeedSource, detector *presence.Detector, snapshot *presence.SnapshotLoader) *Bridge {
	return &Bridge{source: source, detector: detector, snapshot: snapshot}
}

// Serve consumes feed messages until ctx is canceled. It implements
// suture.Service.
func (b *Bridge) Serve(ctx context.Context) error {
	messages, err := b.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to presence feed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("presence feed channel closed")
			}
			b.handle(msg)
		}
	}
}

func (b *Bridge) handle(msg *message.Message) {
	defer msg.Ack()

	ev, err := presence.DecodeFeedEvent(msg.Payload)
	if err != nil {
		metrics.PresenceFeedEvents.WithLabelValues("invalid").Inc()
		logging.Debug().Err(err).Str("message_uuid", msg.UUID).Msg("discarding feed payload")
		return
	}

	metrics.PresenceFeedEvents.WithLabelValues("ok").Inc()
	b.detector.Offer(ev)
	b.snapshot.Kick()
}
