package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "rental"
	metricsSubsystem = "http"
)

// Labels stay bounded: route is the registered Gin pattern, never the raw
// URL, except for unmatched requests.
var (
	httpReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpLat = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "request_duration_seconds",
		Help: "HTTP request latency. Payment routes include the gateway round trip.",
		// Confirm and cancel wait on the gateway for seconds, catalog reads
		// finish in milliseconds.
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "requests_inflight",
		Help: "HTTP requests currently being served.",
	})

	httpRespSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name:    "response_size_bytes",
		Help:    "HTTP response body sizes.",
		Buckets: prometheus.ExponentialBuckets(128, 4, 8), // 128B..2MiB
	}, []string{"method", "route"})

	httpReplays = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "idempotent_replays_total",
		Help: "Responses replayed from a stored Idempotency-Key result.",
	}, []string{"route"})

	httpRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: metricsSubsystem,
		Name: "rejections_total",
		Help: "Requests refused by middleware before reaching a handler, by reason.",
	}, []string{"route", "reason"})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, httpReplays, httpRejections)
}

// Metrics instruments every request. Register it before the middleware that
// may reject requests so their refusals are counted.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route, method := routeOf(c), c.Request.Method
		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
		if c.Writer.Header().Get(HeaderIdempotencyReplayed) == "true" {
			httpReplays.WithLabelValues(route).Inc()
		}
		if reason := c.GetString(ctxKeyRejected); reason != "" {
			httpRejections.WithLabelValues(route, reason).Inc()
		}
	}
}
