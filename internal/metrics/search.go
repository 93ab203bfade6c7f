package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and ingestion Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Total number of building searches",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Building search latency including the store snapshot",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"mode"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CandidatePoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "search_candidate_pool_size",
			Help:      "Buildings loaded for the most recent search",
		},
	)

	ImageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_uploads_total",
			Help:      "Building image uploads by outcome",
		},
		[]string{"status"},
	)

	SeedBuildingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "seed_buildings_total",
			Help:      "Buildings processed by the seed loader by outcome",
		},
		[]string{"result"}, // "created" / "skipped" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search, image and seed metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		SearchRequestsTotal, SearchDuration, SearchResults, CandidatePoolSize,
		ImageUploadsTotal, SeedBuildingsTotal,
	)
	searchMetricsRegistered = true
}

// SearchObserver feeds search outcomes into the package-level collectors.
type SearchObserver struct{}

// ObserveSearch records one search call.
func (SearchObserver) ObserveSearch(mode string, pool, results int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(mode, status).Inc()
	SearchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if err == nil {
		SearchResults.Observe(float64(results))
		CandidatePoolSize.Set(float64(pool))
	}
}

// ImageObserver feeds image upload outcomes into the package-level collectors.
type ImageObserver struct{}

// ObserveUpload records one upload.
func (ImageObserver) ObserveUpload(err error) {
	if err != nil {
		ImageUploadsTotal.WithLabelValues("error").Inc()
		return
	}
	ImageUploadsTotal.WithLabelValues("ok").Inc()
}

// SeedObserver feeds seeding outcomes into the package-level collectors.
type SeedObserver struct{}

// ObserveSeed records the per-building outcome counts of one run.
func (SeedObserver) ObserveSeed(created, skipped, failed int) {
	SeedBuildingsTotal.WithLabelValues("created").Add(float64(created))
	SeedBuildingsTotal.WithLabelValues("skipped").Add(float64(skipped))
	SeedBuildingsTotal.WithLabelValues("failed").Add(float64(failed))
}
