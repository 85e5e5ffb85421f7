// Package metrics provides Prometheus-based implementations of registration metrics reporting.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/sufield/entryadmin/internal/core/ports"
)

const namespace = "entryadmin"

// DefaultJob is the Pushgateway job name.
const DefaultJob = "entryadmin"

var (
	_ ports.MetricsReporter = (*PrometheusMetrics)(nil)
	_ ports.MetricsPusher   = (*PrometheusMetrics)(nil)
)

// PrometheusMetrics implements ports.MetricsReporter on a private registry, so a
// short-lived process exports only what it recorded itself.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	registrations     *prometheus.CounterVec
	bootstrapFailures *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	rpcDuration       *prometheus.HistogramVec
	leafExpiry        prometheus.Gauge
	lastRun           prometheus.Gauge

	pushURL string
	job     string
}

// Option configures PrometheusMetrics.
type Option func(*PrometheusMetrics)

// WithPushgateway enables Push to the Pushgateway at url.
func WithPushgateway(url, job string) Option {
	return func(m *PrometheusMetrics) {
		m.pushURL = url
		if job != "" {
			m.job = job
		}
	}
}

// NewPrometheusMetrics creates a new Prometheus metrics reporter.
func NewPrometheusMetrics(opts ...Option) *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &PrometheusMetrics{
		registry: reg,
		job:      DefaultJob,

		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration runs by outcome",
		}, []string{"outcome"}), // outcome: created, rejected, or a lower-case error code

		bootstrapFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_failures_total",
			Help:      "Failures before the registration request was sent",
		}, []string{"kind"}),

		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identity_fetch_duration_seconds",
			Help:      "Duration of Workload API identity fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),

		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "create_entry_duration_seconds",
			Help:      "Duration of BatchCreateEntry calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code"}),

		leafExpiry: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leaf_expiry_timestamp_seconds",
			Help:      "Unix timestamp when the leaf credential in use expires",
		}),

		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed run",
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *PrometheusMetrics) Registry() *prometheus.Registry { return m.registry }

// RecordFetch records an identity fetch.
func (m *PrometheusMetrics) RecordFetch(success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	m.fetchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordLeafExpiry updates the leaf expiry gauge.
func (m *PrometheusMetrics) RecordLeafExpiry(notAfter time.Time) {
	m.leafExpiry.Set(float64(notAfter.Unix()))
}

// RecordRPC records one BatchCreateEntry call.
func (m *PrometheusMetrics) RecordRPC(code string, duration time.Duration) {
	m.rpcDuration.WithLabelValues(code).Observe(duration.Seconds())
}

// RecordOutcome records the final outcome of a run.
func (m *PrometheusMetrics) RecordOutcome(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
	m.lastRun.SetToCurrentTime()
}

// RecordBootstrapFailure records a failure before the request was sent.
func (m *PrometheusMetrics) RecordBootstrapFailure(kind string) {
	m.bootstrapFailures.WithLabelValues(kind).Inc()
}

// PushEnabled reports whether a Pushgateway is configured.
func (m *PrometheusMetrics) PushEnabled() bool { return m.pushURL != "" }

// Push sends everything recorded so far to the Pushgateway, replacing the
// job's previous metrics. It is a no-op without a configured gateway.
func (m *PrometheusMetrics) Push(ctx context.Context) error {
	if m.pushURL == "" {
		return nil
	}
	if err := push.New(m.pushURL, m.job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", m.pushURL, err)
	}
	return nil
}
