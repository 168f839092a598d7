// Package metrics provides Prometheus metrics collection for the risk service
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginsentry",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loginsentry",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "loginsentry",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
		[]string{"service"},
	)
)

// Risk engine metrics
var (
	// AnalysesTotal counts completed login analyses by resulting risk level.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginsentry",
			Name:      "analyses_total",
			Help:      "Total number of completed login risk analyses",
		},
		[]string{"level"}, // low, medium, high, critical
	)

	// RuleTriggersTotal counts rule firings by rule name.
	RuleTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginsentry",
			Name:      "rule_triggers_total",
			Help:      "Total number of risk rule triggers",
		},
		[]string{"rule"},
	)

	// ThrottleSkipsTotal counts IP-wide scans suppressed by the throttle marker.
	ThrottleSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "loginsentry",
			Name:      "throttle_skips_total",
			Help:      "Total number of IP-wide brute-force scans skipped by throttling",
		},
	)

	// SummaryWritesTotal counts summary upsert outcomes.
	SummaryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loginsentry",
			Name:      "summary_writes_total",
			Help:      "Total number of risk summary upsert attempts",
		},
		[]string{"outcome"}, // written, unchanged, error
	)
)

// Middleware returns a Gin middleware that records HTTP metrics.
// serviceName is used as the "service" label on all metrics.
func Middleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		// Skip metrics endpoint itself to avoid recursion
		if path == "/metrics" {
			c.Next()
			return
		}

		httpRequestsInFlight.WithLabelValues(serviceName).Inc()
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		httpRequestsTotal.WithLabelValues(serviceName, method, path, status).Inc()
		httpRequestDuration.WithLabelValues(serviceName, method, path).Observe(duration)
		httpRequestsInFlight.WithLabelValues(serviceName).Dec()
	}
}

// Handler returns a gin.HandlerFunc that serves Prometheus metrics.
// Register this on the "/metrics" route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
