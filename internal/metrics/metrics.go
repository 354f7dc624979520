// Package metrics holds the Prometheus collectors of the community hub client.
//
// All recording methods accept a nil receiver so that components can be
// constructed without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcomes recorded per notification channel.
const (
	OutcomeDelivered  = "delivered"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)

// Metrics holds all Prometheus metric collectors for the client.
type Metrics struct {
	registry *prometheus.Registry

	// Transport metrics.
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Session metrics.
	SessionTransitionsTotal *prometheus.CounterVec

	// Notification metrics.
	NotificationsTotal *prometheus.CounterVec
	PendingReminders   prometheus.Gauge

	StartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "communityhub_api_requests_total",
			Help: "Total number of backend API requests.",
		}, []string{"method", "endpoint", "status_code"}),

		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "communityhub_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),

		SessionTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "communityhub_session_transitions_total",
			Help: "Total number of session state transitions.",
		}, []string{"to"}),

		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "communityhub_notifications_total",
			Help: "Total number of notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),

		PendingReminders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "communityhub_pending_reminders",
			Help: "Number of armed event reminders.",
		}),

		StartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "communityhub_start_time_seconds",
			Help: "Unix timestamp when the client started.",
		}),
	}

	reg.MustRegister(
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.SessionTransitionsTotal,
		m.NotificationsTotal,
		m.PendingReminders,
		m.StartTime,
	)
	m.StartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAPIRequest records one backend call. statusCode is 0 when the
// request never produced a response.
func (m *Metrics) ObserveAPIRequest(method, endpoint string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.APIRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncSessionTransition(to string) {
	if m == nil {
		return
	}
	m.SessionTransitionsTotal.WithLabelValues(to).Inc()
}

func (m *Metrics) IncNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) SetPendingReminders(n int) {
	if m == nil {
		return
	}
	m.PendingReminders.Set(float64(n))
}
