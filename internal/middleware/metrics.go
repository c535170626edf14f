package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priy-am/url-shortener-service/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for each request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		// Use the route pattern rather than the raw path so that every
		// /api/url/:code hit lands in one series.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPMetrics(c.Request.Method, path, status, time.Since(start))
	}
}
