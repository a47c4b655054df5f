package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "velov_sync"

// Metrics holds the Prometheus counters, histograms, and gauges of a sync run.
type Metrics struct {
	StationsProcessed *prometheus.CounterVec // labels: outcome={created,updated,unchanged,skipped}
	FeedStations      prometheus.Gauge
	FeedCache         *prometheus.CounterVec // labels: result={hit,miss}

	// Knowledge-base API metrics.
	KBRequests        *prometheus.CounterVec   // labels: operation={login,search,get,write}, outcome={success,error}
	KBRequestDuration *prometheus.HistogramVec // labels: operation
	KBRetries         *prometheus.CounterVec   // labels: operation

	ChangeEvents *prometheus.CounterVec // labels: outcome={published,error}

	RunDuration       prometheus.Gauge
	LastSuccessUnixTS prometheus.Gauge
}

// NewMetrics creates and registers all sync metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StationsProcessed,
		m.FeedStations,
		m.FeedCache,
		m.KBRequests,
		m.KBRequestDuration,
		m.KBRetries,
		m.ChangeEvents,
		m.RunDuration,
		m.LastSuccessUnixTS,
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
		StationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_processed_total",
			Help:      "Stations handled by the sync, by outcome.",
		}, []string{"outcome"}),
		FeedStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_stations",
			Help:      "Number of stations in the feed snapshot.",
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_total",
			Help:      "Feed snapshot cache lookups by result.",
		}, []string{"result"}),
		KBRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kb_requests_total",
			Help:      "Knowledge-base API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		KBRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kb_request_duration_seconds",
			Help:      "Knowledge-base API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		KBRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kb_retries_total",
			Help:      "Knowledge-base API retries after a transient failure.",
		}, []string{"operation"}),
		ChangeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Change events sent to the event sink, by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last sync run.",
		}),
		LastSuccessUnixTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last sync run that completed without error.",
		}),
	}
}
