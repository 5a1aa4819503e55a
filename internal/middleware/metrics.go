package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/account-console/internal/service"
)

// unmatchedRoute labels requests that hit no route.
const unmatchedRoute = "unmatched"

// Metrics records every request on the metrics service.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
