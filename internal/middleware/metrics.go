package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"residence/internal/pkg/metrics"
)

// Metrics records request counts, durations and error counts per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method
		statusCode := c.Writer.Status()
		status := strconv.Itoa(statusCode)

		metrics.HTTPRequestsTotal.WithLabelValues(endpoint, status, method).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
		if statusCode >= 400 {
			metrics.HTTPErrorsTotal.WithLabelValues(endpoint, status, method).Inc()
		}
	}
}
