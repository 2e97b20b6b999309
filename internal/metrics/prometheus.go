// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "emesrt"

// Refresh modes.
const (
	ModeRefresh = "refresh"
	ModeCached  = "cached"
)

// Metrics holds all collectors. Each instance owns its registry, so tests
// can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	DeltaRecords    *prometheus.CounterVec
	SnapshotRecords prometheus.Gauge
	StoreFallbacks  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	HTTPInFlight    prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Snapshot reads by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Duration of full refreshes",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DeltaRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delta_records_total",
				Help:      "Records classified by the delta engine",
			},
			[]string{"kind"},
		),
		SnapshotRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_records",
				Help:      "Records in the most recent snapshot",
			},
		),
		StoreFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_fallbacks_total",
				Help:      "Times the ephemeral store replaced a durable backend",
			},
			[]string{"backend", "reason"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "HTTP requests currently being served",
			},
		),
	}

	reg.MustRegister(
		m.RefreshesTotal,
		m.RefreshDuration,
		m.DeltaRecords,
		m.SnapshotRecords,
		m.StoreFallbacks,
		m.HTTPRequests,
		m.HTTPDuration,
		m.HTTPInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRefresh records a completed full refresh.
func (m *Metrics) ObserveRefresh(d time.Duration, records, added, removed, changed int) {
	m.RefreshesTotal.WithLabelValues(ModeRefresh, "ok").Inc()
	m.RefreshDuration.Observe(d.Seconds())
	m.SnapshotRecords.Set(float64(records))
	m.DeltaRecords.WithLabelValues("added").Add(float64(added))
	m.DeltaRecords.WithLabelValues("removed").Add(float64(removed))
	m.DeltaRecords.WithLabelValues("changed").Add(float64(changed))
}

// ObserveCacheHit records a read served from the stored snapshot.
func (m *Metrics) ObserveCacheHit(records int) {
	m.RefreshesTotal.WithLabelValues(ModeCached, "ok").Inc()
	m.SnapshotRecords.Set(float64(records))
}

// ObserveFailure records a read or refresh that returned an error.
func (m *Metrics) ObserveFailure(mode string) {
	m.RefreshesTotal.WithLabelValues(mode, "error").Inc()
}

// StoreFallback implements store.FallbackRecorder.
func (m *Metrics) StoreFallback(backend, reason string) {
	m.StoreFallbacks.WithLabelValues(backend, reason).Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
