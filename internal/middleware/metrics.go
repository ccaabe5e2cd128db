package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-directory/internal/service"
)

// UnmatchedRoute is the path label shared by every request that matched no route.
const UnmatchedRoute = "unmatched"

// Metrics records request counts and latency by route pattern. Requests to the
// skipped paths, typically the scrape endpoint itself, are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
