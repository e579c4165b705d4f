package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics of the gateway.
type Metrics struct {
	IntakeSubmissions       *prometheus.CounterVec
	ProvisionAttempts       *prometheus.CounterVec
	ProvisionLatency        *prometheus.HistogramVec
	DirectoryDegradedQueries prometheus.Counter
	NoncesIssued            prometheus.Counter
}

// NewMetrics creates and registers the metrics on the default registry.
func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewMetricsWithRegistry registers on a caller-owned registry. Tests use this
// to avoid duplicate registration across cases.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		IntakeSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_intake_submissions_total",
				Help: "Total number of intake form submissions.",
			},
			[]string{"edition", "result"},
		),
		ProvisionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_provision_attempts_total",
				Help: "Total number of database creation attempts.",
			},
			[]string{"edition", "result"},
		),
		ProvisionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboard_provision_latency_seconds",
				Help:    "Latency of database creation attempts.",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 180},
			},
			[]string{"edition"},
		),
		DirectoryDegradedQueries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "onboard_directory_degraded_queries_total",
				Help: "Directory listings that failed and were treated as empty.",
			},
		),
		NoncesIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "onboard_nonces_issued_total",
				Help: "One-time creation tokens issued.",
			},
		),
	}
}

// RecordIntake records one intake submission.
func (m *Metrics) RecordIntake(edition, result string) {
	m.IntakeSubmissions.WithLabelValues(edition, result).Inc()
}

// RecordProvision records one creation attempt and its latency.
func (m *Metrics) RecordProvision(edition, result string, duration time.Duration) {
	m.ProvisionAttempts.WithLabelValues(edition, result).Inc()
	m.ProvisionLatency.WithLabelValues(edition).Observe(duration.Seconds())
}
