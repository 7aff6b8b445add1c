package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func newHTTPMetrics() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lockerengine",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	errors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lockerengine",
			Name:      "http_request_errors_total",
			Help:      "Total number of HTTP request errors",
		},
		[]string{"method", "path", "status", "error_type"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lockerengine",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	return requests, errors, duration
}

// Metrics records per-request counters and latency into the given registry.
func Metrics(reg *prometheus.Registry) gin.HandlerFunc {
	requests, errors, duration := newHTTPMetrics()
	reg.MustRegister(requests, errors, duration)

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		requests.WithLabelValues(method, path, statusStr).Inc()
		switch {
		case status >= 500:
			errors.WithLabelValues(method, path, statusStr, "server").Inc()
		case status >= 400:
			errors.WithLabelValues(method, path, statusStr, "client").Inc()
		}
		duration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())
	}
}
