package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	RemindersDispatched *prometheus.CounterVec
	DispatchFailures    *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	DigestEmails        prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RemindersDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Total number of reminder deliveries that succeeded, by channel.",
		}, []string{"channel"}),

		DispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Total number of failed channel delivery attempts, by channel.",
		}, []string{"channel"}),

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_run_seconds",
			Help:    "Wall-clock duration of one full batch run.",
			Buckets: prometheus.DefBuckets,
		}),

		DigestEmails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digest_emails_total",
			Help: "Total number of weekly digest emails sent.",
		}),
	}

	reg.MustRegister(
		m.RemindersDispatched,
		m.DispatchFailures,
		m.RunDuration,
		m.DigestEmails,
	)

	return m
}

// DispatchHooks returns the callback functions the orchestrator accepts.
// Centralises the prometheus observation calls so dispatch stays
// metrics-agnostic.
func (m *Metrics) DispatchHooks() (
	onDelivered func(domain.Channel),
	onFailed func(domain.Channel),
	onRun func(time.Duration),
) {
	onDelivered = func(ch domain.Channel) {
		m.RemindersDispatched.WithLabelValues(string(ch)).Inc()
	}
	onFailed = func(ch domain.Channel) {
		m.DispatchFailures.WithLabelValues(string(ch)).Inc()
	}
	onRun = func(d time.Duration) {
		m.RunDuration.Observe(d.Seconds())
	}
	return
}

// ObserveDigests records sent weekly digest emails.
func (m *Metrics) ObserveDigests(sent int) {
	m.DigestEmails.Add(float64(sent))
}
