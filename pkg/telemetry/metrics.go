package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for droidseed.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Domain metrics
	domainsConfigured *prometheus.CounterVec
	domainDuration    *prometheus.HistogramVec
	itemsWritten      *prometheus.CounterVec

	// Device metrics
	deviceOps        *prometheus.CounterVec
	deviceOpDuration *prometheus.HistogramVec
	deviceOpErrors   *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	// System metrics
	activeRuns prometheus.Gauge

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
				Help:      "Total number of seeding runs started",
			},
			[]string{"source"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of seeding runs completed",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of seeding run execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		domainsConfigured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domains_configured_total",
				Help:      "Total number of domain passes by outcome status",
			},
			[]string{"domain", "status"},
		),
		domainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "domain_duration_seconds",
				Help:      "Duration of one domain configuration pass in seconds",
				Buckets:   buckets,
			},
			[]string{"domain"},
		),
		itemsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_written_total",
				Help:      "Total number of items written to the device",
			},
			[]string{"domain"},
		),

		deviceOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_ops_total",
				Help:      "Total number of device control operations",
			},
			[]string{"op"},
		),
		deviceOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "device_op_duration_seconds",
				Help:      "Duration of device control operations in seconds",
				Buckets:   buckets,
			},
			[]string{"op"},
		),
		deviceOpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_op_errors_total",
				Help:      "Total number of failed device control operations",
			},
			[]string{"op"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),

		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Current number of active seeding runs",
			},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.domainsConfigured,
		m.domainDuration,
		m.itemsWritten,
		m.deviceOps,
		m.deviceOpDuration,
		m.deviceOpErrors,
		m.errorsByClass,
		m.activeRuns,
	)

	return m, nil
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(source string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(source).Inc()
	m.activeRuns.Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeRuns.Dec()
}

// RecordDomainPass records one domain configuration pass.
func (m *Metrics) RecordDomainPass(domain, status string, itemsWritten int, duration time.Duration) {
	if m.domainsConfigured == nil {
		return
	}
	m.domainsConfigured.WithLabelValues(domain, status).Inc()
	m.domainDuration.WithLabelValues(domain).Observe(duration.Seconds())
	if itemsWritten > 0 {
		m.itemsWritten.WithLabelValues(domain).Add(float64(itemsWritten))
	}
}

// RecordDeviceOp records a device control operation with its duration.
func (m *Metrics) RecordDeviceOp(op string, duration time.Duration) {
	if m.deviceOps == nil {
		return
	}
	m.deviceOps.WithLabelValues(op).Inc()
	m.deviceOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordDeviceOpError records a failed device control operation.
func (m *Metrics) RecordDeviceOpError(op string) {
	if m.deviceOpErrors == nil {
		return
	}
	m.deviceOpErrors.WithLabelValues(op).Inc()
}

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
