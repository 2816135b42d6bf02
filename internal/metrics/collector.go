// Package metrics exposes LoadForge's own process metrics (the
// control-plane API, not a run's generated traffic) as Prometheus
// collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics for LoadForge's HTTP API and
// the runs it supervises.
type Collector struct {
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestsInFlight  prometheus.Gauge
	ActiveRuns            prometheus.Gauge
	ActiveWorkers         prometheus.Gauge
	RunRequestsTotal      *prometheus.CounterVec
	RunRequestsFailed     *prometheus.CounterVec
}

// NewCollector creates a new metrics collector and registers it with
// the default Prometheus registry.
func NewCollector() *Collector {
	return &Collector{
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loadforge_http_request_duration_seconds",
				Help:    "Latency of requests served by LoadForge's own control-plane API.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadforge_http_requests_total",
				Help: "Total requests served by LoadForge's control-plane API.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loadforge_http_requests_in_flight",
				Help: "Control-plane API requests currently being served.",
			},
		),
		ActiveRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loadforge_active_runs",
				Help: "Number of load test runs currently executing.",
			},
		),
		ActiveWorkers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loadforge_active_workers",
				Help: "Number of worker goroutines currently running across all runs.",
			},
		),
		RunRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadforge_run_requests_total",
				Help: "Total generated requests across all runs, by run and endpoint.",
			},
			[]string{"run_id", "endpoint"},
		),
		RunRequestsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadforge_run_requests_failed_total",
				Help: "Total failed generated requests across all runs, by run and endpoint.",
			},
			[]string{"run_id", "endpoint"},
		),
	}
}

// IncrementHTTPRequestsInFlight marks the start of a control-plane request.
func (c *Collector) IncrementHTTPRequestsInFlight() {
	c.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight marks the end of a control-plane request.
func (c *Collector) DecrementHTTPRequestsInFlight() {
	c.HTTPRequestsInFlight.Dec()
}

// RecordHTTPRequest records one finished control-plane request.
func (c *Collector) RecordHTTPRequest(method, path, status string, durationSec float64) {
	c.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSec)
	c.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRunRequest records one generated request a run made against its target.
func (c *Collector) RecordRunRequest(runID, endpoint string, failed bool) {
	c.RunRequestsTotal.WithLabelValues(runID, endpoint).Inc()
	if failed {
		c.RunRequestsFailed.WithLabelValues(runID, endpoint).Inc()
	}
}

// SetActiveRuns sets the number of currently executing runs.
func (c *Collector) SetActiveRuns(count int) {
	c.ActiveRuns.Set(float64(count))
}

// SetActiveWorkers sets the number of currently running worker goroutines.
func (c *Collector) SetActiveWorkers(count int) {
	c.ActiveWorkers.Set(float64(count))
}
