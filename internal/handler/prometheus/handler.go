package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/health-assistant/pkg/metrics"
)

// Handler owns the process registry, exposes it for scraping and records
// per-route request metrics.
type Handler struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func New(namespace string) *Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Handler{
		registry: registry,
		metrics:  metrics.NewMetrics(registry, namespace),
	}
}

// Metrics returns the application metrics registered on this handler.
func (h *Handler) Metrics() *metrics.Metrics {
	return h.metrics
}

func (h *Handler) Registry() *prometheus.Registry {
	return h.registry
}

// Middleware labels requests by route template so ids don't explode
// cardinality. Unmatched routes share one label.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		h.metrics.ObserveRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
}
