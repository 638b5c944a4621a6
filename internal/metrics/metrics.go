package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccidex",
			Name:      "search_requests_total",
			Help:      "Total number of OpenSearch requests",
		},
		[]string{"status"},
	)

	searchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccidex",
			Name:      "search_request_duration_seconds",
			Help:      "OpenSearch request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	catalogueBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ccidex",
			Name:      "catalogue_build_duration_seconds",
			Help:      "Duration of full catalogue discovery passes in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	subsetBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ccidex",
			Name:      "subset_bytes_total",
			Help:      "Total number of subset payload bytes produced",
		},
	)
)

var registerOnce sync.Once

// RegisterCoreMetrics registers the portal-client collectors explicitly
// (no init()). Safe to call more than once.
func RegisterCoreMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searchRequestsTotal)
		prometheus.MustRegister(searchRequestDuration)
		prometheus.MustRegister(catalogueBuildDuration)
		prometheus.MustRegister(subsetBytesTotal)
	})
}

// ObserveSearchRequest records one OpenSearch round trip.
func ObserveSearchRequest(status string, duration time.Duration) {
	searchRequestsTotal.WithLabelValues(status).Inc()
	searchRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveCatalogueBuild records the duration of one discovery pass.
func ObserveCatalogueBuild(duration time.Duration) {
	catalogueBuildDuration.Observe(duration.Seconds())
}

// AddSubsetBytes records the size of one subset payload.
func AddSubsetBytes(n int) {
	subsetBytesTotal.Add(float64(n))
}
