package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SnapshotFetchesTotal *prometheus.CounterVec
	TableBuildsTotal     *prometheus.CounterVec
	TableBuildDuration   prometheus.Histogram
	QueryChangesTotal    prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		SnapshotFetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_fetches_total",
				Help: "Per-date snapshot fetches by outcome (ok, not_found, error)",
			},
			[]string{"outcome"},
		),

		TableBuildsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "table_builds_total",
				Help: "Rate-table aggregation runs by outcome (ok, empty, error)",
			},
			[]string{"outcome"},
		),

		TableBuildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "table_build_duration_seconds",
				Help:    "Duration of one rate-table aggregation run",
				Buckets: prometheus.DefBuckets,
			},
		),

		QueryChangesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "query_changes_total",
				Help: "Total number of query-state changes accepted by the controller",
			},
		),
	}
}
