package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process counters. All record methods are safe on a nil
// receiver so tests can pass nil without registering collectors.
type Metrics struct {
	Registrations          prometheus.Counter
	Scans                  *prometheus.CounterVec
	SnapshotSaveFailures   prometheus.Counter
	Forwards               prometheus.Counter
	ForwardFailures        prometheus.Counter
	NotificationsScheduled prometheus.Counter
	NotificationFailures   prometheus.Counter
}

// New registers and returns the process metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_registrations_total",
			Help: "Total number of successful registrations",
		}),
		Scans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scanattend_scans_total",
			Help: "Total number of processed scans by resulting status",
		}, []string{"status"}),
		SnapshotSaveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_snapshot_save_failures_total",
			Help: "Total number of failed registry snapshot writes",
		}),
		Forwards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_event_forwards_total",
			Help: "Total number of events delivered to the sink",
		}),
		ForwardFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_event_forward_failures_total",
			Help: "Total number of events dropped after a failed sink delivery",
		}),
		NotificationsScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_notifications_scheduled_total",
			Help: "Total number of deferred notifications scheduled",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scanattend_notification_failures_total",
			Help: "Total number of deferred notifications that failed to send",
		}),
	}
}

func (m *Metrics) RegistrationRecorded() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) ScanRecorded(status string) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(status).Inc()
}

func (m *Metrics) SnapshotSaveFailed() {
	if m == nil {
		return
	}
	m.SnapshotSaveFailures.Inc()
}

func (m *Metrics) ForwardAttempted(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Forwards.Inc()
	} else {
		m.ForwardFailures.Inc()
	}
}

func (m *Metrics) NotificationScheduled() {
	if m == nil {
		return
	}
	m.NotificationsScheduled.Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}
