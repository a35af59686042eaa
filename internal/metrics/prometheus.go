// Package metrics holds the prometheus collectors shared by both processes
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erfiume_ingestion_runs_total",
			Help: "Total number of ingestion passes by outcome",
		},
		[]string{"outcome"},
	)

	StationsFound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "erfiume_stations_found",
			Help: "Number of stations returned by the last ingestion pass",
		},
	)

	StationsUpdated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erfiume_stations_updated_total",
			Help: "Total number of station records advanced in the store",
		},
	)

	EnrichmentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erfiume_enrichment_failures_total",
			Help: "Total number of per-station time series fetch failures",
		},
	)

	StoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erfiume_store_failures_total",
			Help: "Total number of failed station upserts",
		},
	)

	ChatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erfiume_chat_requests_total",
			Help: "Total number of chat requests by kind",
		},
		[]string{"kind"},
	)

	ThrottledRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erfiume_throttled_requests_total",
			Help: "Total number of chat requests rejected by the throttle gate",
		},
	)

	ResolverMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "erfiume_resolver_misses_total",
			Help: "Total number of station queries that matched no known station",
		},
	)

	AlertNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erfiume_alert_notifications_total",
			Help: "Total number of threshold alert notifications by outcome",
		},
		[]string{"outcome"},
	)

	OpsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erfiume_ops_http_requests_total",
			Help: "Total number of ops HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	OpsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erfiume_ops_http_request_duration_seconds",
			Help:    "Ops HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(IngestionRuns)
	prometheus.MustRegister(StationsFound)
	prometheus.MustRegister(StationsUpdated)
	prometheus.MustRegister(EnrichmentFailures)
	prometheus.MustRegister(StoreFailures)
	prometheus.MustRegister(ChatRequests)
	prometheus.MustRegister(ThrottledRequests)
	prometheus.MustRegister(ResolverMisses)
	prometheus.MustRegister(AlertNotifications)
	prometheus.MustRegister(OpsRequests)
	prometheus.MustRegister(OpsRequestDuration)
}
