package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/internal/infrastructure/metrics"
)

// Metrics records the count and latency of every request by route template.
func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			rec.RecordRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		}()
		c.Next()
	}
}
