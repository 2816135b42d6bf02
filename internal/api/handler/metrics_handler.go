package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the process's own Prometheus metrics at
// /metrics, separate from the per-run snapshots a run's result carries.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// Handler returns the standard Prometheus scrape handler.
func (h *MetricsHandler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
