package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lotofacil",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lotofacil",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"method", "route"},
	)

	fetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lotofacil",
			Subsystem: "source",
			Name:      "fetch_attempts_total",
			Help:      "Result fetch attempts per endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lotofacil",
			Subsystem: "source",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by hit or miss.",
		},
		[]string{"result"},
	)

	scanSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lotofacil",
			Subsystem: "scan",
			Name:      "steps_total",
			Help:      "Drawing ids visited by historical scans.",
		},
		[]string{"kind", "outcome"},
	)

	scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lotofacil",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of historical scans.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		},
		[]string{"kind", "truncated"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		fetchAttempts,
		cacheLookups,
		scanSteps,
		scanDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and durations per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordFetch counts one attempt against a result endpoint.
func RecordFetch(endpoint, outcome string) {
	fetchAttempts.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCacheLookup counts one result cache lookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordScanStep counts one drawing id visited by a scan of the given kind.
func RecordScanStep(kind string, skipped bool) {
	outcome := "processed"
	if skipped {
		outcome = "skipped"
	}
	scanSteps.WithLabelValues(kind, outcome).Inc()
}

// ObserveScan records the duration of a finished scan.
func ObserveScan(kind string, duration time.Duration, truncated bool) {
	scanDuration.WithLabelValues(kind, strconv.FormatBool(truncated)).Observe(duration.Seconds())
}
