package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stellarreg/api/internal/metrics"
)

func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HistogramRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.CounterRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
