// Package metrics provides Prometheus instrumentation for Glimpse.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge

	// Engagement metrics
	EngagementOpsTotal       *prometheus.CounterVec
	EngagementConflictsTotal prometheus.Counter
	EngagementRetriesTotal   prometheus.Counter
	EngagementLockWaits      prometheus.Histogram

	// Upload metrics
	UploadsTotal prometheus.Counter
	UploadBytes  prometheus.Histogram
}

// New creates and registers all application metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glimpse_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "glimpse_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glimpse_http_in_flight_requests",
			Help: "Number of HTTP requests currently being served.",
		}),

		EngagementOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glimpse_engagement_operations_total",
			Help: "Engagement operations by kind and outcome.",
		}, []string{"operation", "outcome"}),

		EngagementConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glimpse_engagement_conflicts_total",
			Help: "Versioned writes that lost a concurrent update race.",
		}),

		EngagementRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glimpse_engagement_retries_total",
			Help: "Engagement write attempts retried after a version conflict.",
		}),

		EngagementLockWaits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glimpse_engagement_lock_wait_seconds",
			Help:    "Time spent waiting for the per-photo engagement lock.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		UploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glimpse_uploads_total",
			Help: "Successfully stored photo uploads.",
		}),

		UploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glimpse_upload_bytes",
			Help:    "Size distribution of uploaded photos.",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPInFlight,
		m.EngagementOpsTotal,
		m.EngagementConflictsTotal,
		m.EngagementRetriesTotal,
		m.EngagementLockWaits,
		m.UploadsTotal,
		m.UploadBytes,
	)

	return m
}

// RecordEngagement records an engagement operation outcome.
func (m *Metrics) RecordEngagement(operation, outcome string) {
	m.EngagementOpsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordUpload records a successful photo upload.
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.UploadsTotal.Inc()
	m.UploadBytes.Observe(float64(sizeBytes))
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
