package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation core and the API surface.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec   // labels: source, outcome={success,error}
	CacheLookups     *prometheus.CounterVec   // labels: key, result={hit,miss}
	SnapshotDuration prometheus.Histogram     // full multi-source merge on a cache miss
	StationsByStatus *prometheus.GaugeVec     // labels: status
	AlertsPublished  prometheus.Counter       // alert records handed to the publisher
	APIDuration      *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.CacheLookups,
		m.SnapshotDuration,
		m.StationsByStatus,
		m.AlertsPublished,
		m.APIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_api",
			Name:      "upstream_requests_total",
			Help:      "Upstream artifact fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_api",
			Name:      "cache_lookups_total",
			Help:      "Aggregation cache lookups by operation key and result.",
		}, []string{"key", "result"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_api",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of a full multi-source merge on a cache miss.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StationsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "flood_api",
			Name:      "stations_by_status",
			Help:      "Stations in the current snapshot grouped by alert status.",
		}, []string{"status"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_api",
			Name:      "alerts_published_total",
			Help:      "Alert records handed to the alert event publisher.",
		}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_api",
			Name:      "api_request_duration_seconds",
			Help:      "API handler duration by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 30},
		}, []string{"route"}),
	}
}
