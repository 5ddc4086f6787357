package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ipmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ipmap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Engine metrics
	SnapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "snapshot_records",
		Help:      "Observation records with a usable location in the loaded snapshot",
	})

	SnapshotClusters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "snapshot_clusters",
		Help:      "Distinct location clusters in the loaded snapshot",
	})

	ViewNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "view_notifications_total",
		Help:      "View-change notifications received (pan, zoom, resize)",
	})

	Recomputes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "recomputes_total",
		Help:      "Visible set recomputations executed after debouncing",
	})

	StaleRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "stale_recomputes_total",
		Help:      "Recomputations dropped because their session was already closed",
	})

	VisibleClusters = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "visible_clusters",
		Help:      "Clusters in each recomputed visible set",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ipmap",
		Subsystem: "engine",
		Name:      "active_sessions",
		Help:      "Open view sessions",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ipmap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipmap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// route pattern keeps session IDs out of label values
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
