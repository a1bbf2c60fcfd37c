// Package forward moves committed attendance events from the queue to the
// external event sink. Delivery is at most once: a failed append is logged,
// counted, and dropped.
package forward

import (
	"context"
	"encoding/json"
	"log"

	"scanattend/internal/attendance"
	"scanattend/internal/metrics"
	"scanattend/internal/queue"
)

const messageType = "attendance-event"

// Sink is the external append-only event log.
type Sink interface {
	Append(ctx context.Context, row []string) error
}

// LogSink records rows in the process log when no spreadsheet is configured.
type LogSink struct{}

// Append logs the row and reports success.
func (LogSink) Append(_ context.Context, row []string) error {
	log.Printf("event row (no sink configured): %v", row)
	return nil
}

// Publisher adapts a queue into the service's event publisher.
type Publisher struct {
	q queue.Queue
}

// NewPublisher wraps a queue.
func NewPublisher(q queue.Queue) *Publisher {
	return &Publisher{q: q}
}

// Publish enqueues one committed event for forwarding.
func (p *Publisher) Publish(ctx context.Context, evt attendance.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.q.Publish(ctx, queue.Message{Type: messageType, Body: body})
}

// Observer receives the outcome of each delivery attempt. It lets tests and
// diagnostics distinguish committed-locally from forwarded without coupling
// the mutation path to sink health.
type Observer func(evt attendance.Event, err error)

// Dispatcher drains the queue into the sink.
type Dispatcher struct {
	q        queue.Queue
	sink     Sink
	metrics  *metrics.Metrics
	observer Observer
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher(q queue.Queue, sink Sink, m *metrics.Metrics, observer Observer) *Dispatcher {
	return &Dispatcher{q: q, sink: sink, metrics: m, observer: observer}
}

// Run consumes events until ctx is canceled. Events for one entry are
// delivered in the order they were committed; a failed delivery does not stop
// the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != messageType {
			continue
		}
		var evt attendance.Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("event undecodable, dropping: %v", err)
			continue
		}
		d.deliver(ctx, evt)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, evt attendance.Event) {
	err := d.sink.Append(ctx, evt.Row())
	d.metrics.ForwardAttempted(err == nil)
	if err != nil {
		log.Printf("forward failed for entry %s (%s), dropping: %v", evt.EntryID, evt.Status, err)
	}
	if d.observer != nil {
		d.observer(evt, err)
	}
}
