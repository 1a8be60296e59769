// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package presence

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Metrics-Hub/metrics-hub/internal/logging"
	"github.com/Metrics-Hub/metrics-hub/internal/metrics"
)

// NotificationMessage renders the human-readable toast text.
func NotificationMessage(kind NotificationKind, displayName string) string {
	if kind == NotificationOnline {
		return fmt.Sprintf("%s is online", displayName)
	}
	return fmt.Sprintf("%s went offline", displayName)
}

// LogNotifier writes transitions to the structured log. It is the
// default sink when nothing else is configured.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(kind NotificationKind, displayName string) {
	metrics.PresenceNotifications.WithLabelValues("log").Inc()
	logging.Info().Str("kind", string(kind)).Msg(NotificationMessage(kind, displayName))
}

// MultiNotifier fans one transition out to several sinks.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(kind NotificationKind, displayName string) {
	for _, n := range m {
		n.Notify(kind, displayName)
	}
}

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	URL       string
	RateLimit time.Duration
	Timeout   time.Duration
}

// WebhookPayload is the JSON body POSTed per transition.
type WebhookPayload struct {
	EventID     string           `json:"event_id"`
	EventType   string           `json:"event_type"` // presence_transition
	Kind        NotificationKind `json:"kind"`
	DisplayName string           `json:"display_name"`
	Message     string           `json:"message"`
	Timestamp   time.Time        `json:"timestamp"`
	Source      string           `json:"source"` // metrics-hub
}

// WebhookNotifier POSTs each transition to a configured endpoint.
// Delivery happens on a single background worker so Notify never
// blocks the detector's reactor; rate-limited or overflowing
// deliveries are dropped, not queued without bound, and there are no
// retries.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter

	queue  chan WebhookPayload
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWebhookNotifier creates and starts a webhook notifier. Call Close
// to stop the delivery worker.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &WebhookNotifier{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
		queue:   make(chan WebhookPayload, 64),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go n.deliverLoop(ctx)
	return n
}

// Notify implements Notifier. The payload is queued for background
// delivery; when the queue is full the transition is dropped.
func (n *WebhookNotifier) Notify(kind NotificationKind, displayName string) {
	payload := WebhookPayload{
		EventID:     uuid.New().String(),
		EventType:   "presence_transition",
		Kind:        kind,
		DisplayName: displayName,
		Message:     NotificationMessage(kind, displayName),
		Timestamp:   time.Now().UTC(),
		Source:      "metrics-hub",
	}
	select {
	case n.queue <- payload:
	default:
		metrics.PresenceNotifications.WithLabelValues("webhook_dropped").Inc()
	}
}

func (n *WebhookNotifier) deliverLoop(ctx context.Context) {
	defer close(n.done)
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-n.queue:
			if !n.limiter.Allow() {
				metrics.PresenceNotifications.WithLabelValues("webhook_dropped").Inc()
				continue
			}
			if err := n.deliver(ctx, payload); err != nil {
				metrics.PresenceNotifications.WithLabelValues("webhook_error").Inc()
				logging.Warn().Err(err).Msg("webhook notification delivery failed")
				continue
			}
			metrics.PresenceNotifications.WithLabelValues("webhook").Inc()
		}
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close stops the delivery worker and waits for it to exit.
func (n *WebhookNotifier) Close() {
	n.cancel()
	<-n.done
}
