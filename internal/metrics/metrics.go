// Package metrics holds the Prometheus collectors the site exports.  A nil
// *Metrics is valid and records nothing, which keeps tests and tools free of
// registry setup.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeMalformed   = "malformed"
	OutcomeHoneypot    = "honeypot"
)

// Sink names.
const (
	SinkPersistence  = "persistence"
	SinkNotification = "notification"
)

// Metrics bundles the collectors.
type Metrics struct {
	ContactSubmissions *prometheus.CounterVec
	SinkFailures       *prometheus.CounterVec
	CalendarExports    *prometheus.CounterVec
	ListingFallbacks   prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ContactSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsite_contact_submissions_total",
				Help: "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsite_contact_sink_failures_total",
				Help: "Failed persistence or notification dispatches for accepted submissions",
			},
			[]string{"sink"},
		),
		CalendarExports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandsite_calendar_exports_total",
				Help: "Calendar documents served, by kind (show, feed)",
			},
			[]string{"kind"},
		),
		ListingFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bandsite_show_listing_fallbacks_total",
				Help: "Show listings served from the bundled dataset",
			},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bandsite_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
	reg.MustRegister(m.ContactSubmissions, m.SinkFailures, m.CalendarExports, m.ListingFallbacks, m.HTTPDuration)
	return m
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.ContactSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SinkFailure(sink string) {
	if m == nil {
		return
	}
	m.SinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) CalendarExport(kind string) {
	if m == nil {
		return
	}
	m.CalendarExports.WithLabelValues(kind).Inc()
}

func (m *Metrics) ListingFallback() {
	if m == nil {
		return
	}
	m.ListingFallbacks.Inc()
}

func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}
