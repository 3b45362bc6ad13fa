package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learner_analytics_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"endpoint"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_analytics_request_total",
			Help: "Total number of API requests processed",
		},
		[]string{"endpoint", "status"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learner_analytics_sync_duration_seconds",
			Help:    "End-to-end sync run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_analytics_sync_runs_total",
			Help: "Total sync runs by outcome",
		},
		[]string{"status"},
	)

	SourceRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "learner_analytics_source_rows",
			Help: "Rows fetched from each source in the last sync",
		},
		[]string{"source"},
	)

	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_analytics_source_errors_total",
			Help: "Total fetch failures per source",
		},
		[]string{"source"},
	)

	BridgeResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_analytics_bridge_resolutions_total",
			Help: "Identity resolutions by bridging method",
		},
		[]string{"method"},
	)

	CachedLearners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "learner_analytics_cached_learners",
			Help: "Learner records in the analytical store",
		},
	)

	CacheReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "learner_analytics_cache_reloads_total",
			Help: "Total analytical store reloads",
		},
	)

	CacheQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learner_analytics_cache_query_duration_seconds",
			Help:    "Analytical store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	CacheQueryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "learner_analytics_cache_query_failures_total",
			Help: "Total analytical store query failures",
		},
	)

	ResponseCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "learner_analytics_response_cache_hits_total",
			Help: "Total response cache hits",
		},
	)

	ResponseCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "learner_analytics_response_cache_misses_total",
			Help: "Total response cache misses",
		},
	)

	RateLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "learner_analytics_rate_limit_rejections_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)

	WarehouseQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learner_analytics_warehouse_queries_total",
			Help: "Total warehouse chunk queries by outcome",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(RequestTotal)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SyncRuns)
	prometheus.MustRegister(SourceRows)
	prometheus.MustRegister(SourceErrors)
	prometheus.MustRegister(BridgeResolutions)
	prometheus.MustRegister(CachedLearners)
	prometheus.MustRegister(CacheReloads)
	prometheus.MustRegister(CacheQueryDuration)
	prometheus.MustRegister(CacheQueryFailures)
	prometheus.MustRegister(ResponseCacheHits)
	prometheus.MustRegister(ResponseCacheMisses)
	prometheus.MustRegister(RateLimitRejections)
	prometheus.MustRegister(WarehouseQueries)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
