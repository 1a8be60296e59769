// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// FeedEventType tags a change-feed payload.
type FeedEventType string

const (
	FeedInsert FeedEventType = "insert"
	FeedUpdate FeedEventType = "update"
	FeedDelete FeedEventType = "delete"
)

// ErrNoUserID marks a change-feed payload whose row lacks a user_id.
// Such payloads are discarded silently at the boundary.
var ErrNoUserID = errors.New("presence: feed row has no user_id")

// FeedEvent is one validated change-feed event. Row deletion carries
// the old row identity and is treated as an offline signal.
type FeedEvent struct {
	Type FeedEventType
	Row  PresenceRecord
}

// Online reports whether the event is a positive presence observation.
// Deletes are offline signals regardless of the row's is_online flag.
func (e FeedEvent) Online() bool {
	return e.Type != FeedDelete && e.Row.IsOnline
}

// feedPayload is the wire shape of a row-change event.
type feedPayload struct {
	Type   string          `json:"type"`
	NewRow *PresenceRecord `json:"new_row,omitempty"`
	OldRow *PresenceRecord `json:"old_row,omitempty"`
}

// DecodeFeedEvent validates a raw change-feed payload into a FeedEvent.
// The dynamic payload is decoded exactly once, here at the boundary;
// downstream code trusts the FeedEvent shape. Schema mismatches and
// rows without a user_id return an error and the payload is dropped by
// the caller.
func DecodeFeedEvent(data []byte) (FeedEvent, error) {
	var p feedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return FeedEvent{}, fmt.Errorf("presence: decode feed payload: %w", err)
	}

	var typ FeedEventType
	switch FeedEventType(p.Type) {
	case FeedInsert, FeedUpdate, FeedDelete:
		typ = FeedEventType(p.Type)
	default:
		return FeedEvent{}, fmt.Errorf("presence: unknown feed event type %q", p.Type)
	}

	row := p.NewRow
	if row == nil && typ == FeedDelete {
		row = p.OldRow
	}
	if row == nil || row.UserID == "" {
		return FeedEvent{}, ErrNoUserID
	}

	return FeedEvent{Type: typ, Row: *row}, nil
}

// EncodeFeedEvent marshals a FeedEvent back into its wire shape. Used
// by the heartbeat ingest path to publish row changes.
func EncodeFeedEvent(ev FeedEvent) ([]byte, error) {
	p := feedPayload{Type: string(ev.Type)}
	if ev.Type == FeedDelete {
		p.OldRow = &ev.Row
	} else {
		p.NewRow = &ev.Row
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("presence: encode feed payload: %w", err)
	}
	return data, nil
}
