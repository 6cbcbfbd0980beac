package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "reelsearch"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by resolved mode and outcome",
		},
		[]string{"mode", "status"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"mode"},
	)

	SimilarStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similar_streams_total",
			Help:      "Similarity streams by terminal outcome",
		},
		[]string{"outcome"}, // done / error / client_gone
	)

	SimilarStreamMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similar_stream_matches_total",
			Help:      "Match messages sent over similarity streams",
		},
	)

	SnapshotReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_reloads_total",
			Help:      "Entity snapshot rebuilds by result",
		},
		[]string{"result"}, // ok / error
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search, stream and snapshot metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(SimilarStreamsTotal)
	prometheus.MustRegister(SimilarStreamMatchesTotal)
	prometheus.MustRegister(SnapshotReloadsTotal)
	searchMetricsRegistered = true
}
