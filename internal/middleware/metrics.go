package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/metrics"
)

// websocketRoutePrefix marks the live-run feed: it stays open for the
// life of a run rather than completing in request/response fashion, so
// folding its open-to-close duration into the same histogram as the
// control-plane's ordinary handlers would skew every latency bucket.
const websocketRoutePrefix = "/ws/"

// MetricsMiddleware records control-plane HTTP metrics (request rate,
// in-flight count, latency) for every route except the websocket live
// feed, whose connections are long-lived by design.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, websocketRoutePrefix) {
			c.Next()
			return
		}

		collector.IncrementHTTPRequestsInFlight()
		defer collector.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		// Use the registered route template, not the actual path with
		// params, so /api/v1/runs/<uuid> and /api/v1/runs/<other-uuid>
		// share one metrics series instead of one each.
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		collector.RecordHTTPRequest(method, path, status, duration)
	}
}

// MetricsMiddlewareConfig allows custom configuration
type MetricsMiddlewareConfig struct {
	Collector *metrics.Collector
	SkipPaths []string
}

// MetricsMiddlewareWithConfig creates a metrics middleware with custom config
func MetricsMiddlewareWithConfig(config MetricsMiddlewareConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Skip metrics for specified paths (like /metrics itself) and
		// for the websocket live feed, whose connections are long-lived
		// by design and would skew the latency histogram.
		if skipPaths[path] || strings.HasPrefix(path, websocketRoutePrefix) {
			c.Next()
			return
		}

		// Track in-flight requests
		config.Collector.IncrementHTTPRequestsInFlight()
		defer config.Collector.DecrementHTTPRequestsInFlight()

		// Start timer
		start := time.Now()

		// Process request
		c.Next()

		// Calculate duration
		duration := time.Since(start).Seconds()

		// Get path template
		fullPath := c.FullPath()
		if fullPath == "" {
			fullPath = "unknown"
		}

		// Record metrics
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		config.Collector.RecordHTTPRequest(method, fullPath, status, duration)
	}
}
