package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/service"
)

// unmatchedRoute labels requests that hit no route so scanners cannot inflate label cardinality.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that captures request metrics using the provided service.
// Paths under any of skip (e.g. the scrape endpoint itself) are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || skipped(c.Request.URL.Path, skip) {
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

func skipped(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
