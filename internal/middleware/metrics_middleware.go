package middleware

import (
	"strconv"
	"time"

	"github.com/Baaaki/role-admin/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records the duration of every request by matched route and status code.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
