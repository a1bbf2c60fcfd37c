// Package notify sends deferred, fire-and-forget notifications after
// check-out.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"scanattend/internal/metrics"
)

// Sender delivers one notification message.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes the message to the process log. It stands in for a real
// gateway in development.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(_ context.Context, phone, message string) error {
	log.Printf("notification to %s: %s", phone, message)
	return nil
}

// GatewaySender posts notifications to a messaging gateway over HTTP.
type GatewaySender struct {
	URL  string
	HTTP *http.Client
}

// NewGatewaySender creates a sender for the given gateway endpoint.
func NewGatewaySender(gatewayURL string) *GatewaySender {
	return &GatewaySender{
		URL:  gatewayURL,
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts {phone, message} to the gateway.
func (g *GatewaySender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{"phone": phone, "message": message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway rejected notification (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Scheduler fires one-shot deferred notifications. Scheduled sends run
// independently of the request that created them: no result is observed by
// the caller, no cancellation is exposed, and pending sends are dropped on
// process exit.
type Scheduler struct {
	sender  Sender
	delay   time.Duration
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewScheduler creates a scheduler. A non-positive delay falls back to 10
// seconds, the interval the check-out flow has always used.
func NewScheduler(sender Sender, delay time.Duration, m *metrics.Metrics) *Scheduler {
	if delay <= 0 {
		delay = 10 * time.Second
	}
	return &Scheduler{
		sender:  sender,
		delay:   delay,
		timeout: 30 * time.Second,
		metrics: m,
	}
}

// Schedule enqueues one deferred send and returns immediately. Send failures
// are logged and dropped.
func (s *Scheduler) Schedule(phone, message string) {
	s.metrics.NotificationScheduled()
	time.AfterFunc(s.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.sender.Send(ctx, phone, message); err != nil {
			s.metrics.NotificationFailed()
			log.Printf("notification to %s failed: %v", phone, err)
		}
	})
}
