// Package metrics exposes prometheus counters for the API server.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charvault_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	RecordsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charvault_records_imported_total",
		Help: "Records accepted through CSV import.",
	})

	RecordsExported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charvault_records_exported_total",
		Help: "Records written through CSV export.",
	})

	RecordsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charvault_records_scanned_total",
		Help: "Records produced by AI extraction.",
	})
)

// Middleware counts every request once it completes.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}

// Handler serves the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
