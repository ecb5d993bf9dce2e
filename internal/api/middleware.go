package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

// requestLogger logs every request at debug and records request metrics by
// route template so per-market paths do not explode label cardinality
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, route, status)

		log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request completed")
	}
}
