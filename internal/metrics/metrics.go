package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	Bookings            *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	RemindersSent       prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenda_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_bookings_total",
			Help: "Booking attempts by outcome (created or the rejection code).",
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_status_transitions_total",
			Help: "Applied appointment status transitions.",
		}, []string{"from", "to"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agenda_notifications_failed_total",
			Help: "Notification deliveries recorded for retry, by sink.",
		}, []string{"sink"}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agenda_reminders_sent_total",
			Help: "Appointment reminders enqueued.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Bookings,
		m.Transitions,
		m.NotificationsFailed,
		m.RemindersSent,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The methods below are nil-safe so use cases work without metrics.

func (m *Metrics) BookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) NotificationFailed(sink string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(sink).Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}
