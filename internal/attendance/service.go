package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"scanattend/internal/metrics"
)

// Publisher enqueues committed events for forwarding to the external sink.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Scheduler schedules a deferred, fire-and-forget notification.
type Scheduler interface {
	Schedule(phone, message string)
}

// Service coordinates registry mutations with their side effects: the
// snapshot flush happens inside the registry before the mutation returns,
// then the resulting event is published and, on check-out, a notification is
// scheduled. Publish and notification failures never fail the mutation.
type Service struct {
	registry *Registry
	events   Publisher
	notifier Scheduler
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a service. events and notifier may be nil, in which case
// the corresponding side effect is skipped.
func NewService(registry *Registry, events Publisher, notifier Scheduler, m *metrics.Metrics) *Service {
	return &Service{
		registry: registry,
		events:   events,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Register creates a new participant and emits a Registered event.
func (s *Service) Register(ctx context.Context, reg Registration) (Record, error) {
	rec, err := s.registry.Register(ctx, reg)
	if err != nil {
		return Record{}, err
	}
	s.metrics.RegistrationRecorded()
	log.Printf("registered %s (%s)", rec.Name, rec.EntryID)
	s.publish(ctx, NewEvent(rec, s.now()))
	return rec, nil
}

// Scan toggles the entry's presence state and emits the resulting event. A
// check-out additionally schedules a deferred notification to the
// participant's phone.
func (s *Service) Scan(ctx context.Context, entryID string) (Record, error) {
	rec, err := s.registry.Scan(ctx, entryID)
	if err != nil {
		return Record{}, err
	}
	s.metrics.ScanRecorded(string(rec.LastStatus))
	log.Printf("%s (%s) is now %s (scan count %d)", rec.Name, rec.EntryID, rec.LastStatus, rec.ScanCount)

	now := s.now()
	s.publish(ctx, NewEvent(rec, now))

	if rec.LastStatus == StatusCheckedOut && s.notifier != nil {
		msg := fmt.Sprintf("Hello %s, you have been checked out at %s.", rec.Name, now.Format(TimestampLayout))
		s.notifier.Schedule(rec.Phone, msg)
	}
	return rec, nil
}

// Participants returns all records for diagnostics.
func (s *Service) Participants() []Record {
	return s.registry.List()
}

// Count returns the number of registered entries.
func (s *Service) Count() int {
	return s.registry.Len()
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		log.Printf("event publish failed for %s: %v", evt.EntryID, err)
	}
}
