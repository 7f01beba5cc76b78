package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for Seedbed. A disabled configuration
// yields a no-op instance; all record methods tolerate it.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runsSkipped   *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Record metrics
	recordsInserted       *prometheus.CounterVec
	identitiesProvisioned prometheus.Counter
	identitiesExisting    prometheus.Counter

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// Collection state
	collectionRecords *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of seed runs started",
			},
			[]string{"collection"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of seed runs completed by status",
			},
			[]string{"collection", "status"},
		),
		runsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_skipped_total",
				Help:      "Total number of seed runs skipped by gating, by reason",
			},
			[]string{"collection", "reason"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Seed run duration in seconds",
				Buckets:   buckets,
			},
			[]string{"collection"},
		),
		recordsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_inserted_total",
				Help:      "Total number of records inserted by seeding",
			},
			[]string{"collection"},
		),
		identitiesProvisioned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identities_provisioned_total",
				Help:      "Total number of identities created through the identity subsystem",
			},
		),
		identitiesExisting: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identities_existing_total",
				Help:      "Total number of identity records skipped because the email already existed",
			},
		),
		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of seeding errors by kind",
			},
			[]string{"kind"},
		),
		collectionRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "collection_records",
				Help:      "Current number of records per collection",
			},
			[]string{"collection"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runsSkipped,
		m.runDuration,
		m.recordsInserted,
		m.identitiesProvisioned,
		m.identitiesExisting,
		m.errorsByKind,
		m.collectionRecords,
	)

	return m, nil
}

// enabled reports whether this instance records anything.
func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// RecordRunStarted increments the started-runs counter.
func (m *Metrics) RecordRunStarted(collection string) {
	if !m.enabled() {
		return
	}
	m.runsStarted.WithLabelValues(collection).Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(collection, status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.runsCompleted.WithLabelValues(collection, status).Inc()
	m.runDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// RecordRunSkipped records a run skipped by gating.
func (m *Metrics) RecordRunSkipped(collection, reason string) {
	if !m.enabled() {
		return
	}
	m.runsSkipped.WithLabelValues(collection, reason).Inc()
}

// RecordRecordsInserted adds to the inserted-records counter.
func (m *Metrics) RecordRecordsInserted(collection string, count int) {
	if !m.enabled() {
		return
	}
	m.recordsInserted.WithLabelValues(collection).Add(float64(count))
}

// RecordIdentityProvisioned increments the provisioned-identities counter.
func (m *Metrics) RecordIdentityProvisioned() {
	if !m.enabled() {
		return
	}
	m.identitiesProvisioned.Inc()
}

// RecordIdentityExisting increments the skipped-identities counter.
func (m *Metrics) RecordIdentityExisting() {
	if !m.enabled() {
		return
	}
	m.identitiesExisting.Inc()
}

// RecordError increments the error counter for a kind.
func (m *Metrics) RecordError(kind string) {
	if !m.enabled() {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// SetCollectionRecords sets the record-count gauge for a collection.
func (m *Metrics) SetCollectionRecords(collection string, count int) {
	if !m.enabled() {
		return
	}
	m.collectionRecords.WithLabelValues(collection).Set(float64(count))
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer starts the metrics HTTP server in a goroutine.
func (m *Metrics) StartMetricsServer() error {
	if !m.enabled() {
		return nil
	}

	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())

	go func() {
		// Serve until process exit; errors here are not recoverable by callers.
		_ = http.ListenAndServe(m.config.ListenAddress, mux)
	}()

	return nil
}
