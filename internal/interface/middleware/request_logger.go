package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs the start and the end of every request. The completion
// record is written from a deferred call so failed and panicking requests get one too.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		fields := logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}
		logger.WithFields(fields).Info("Incoming request")

		defer func() {
			logger.WithFields(fields).WithFields(logrus.Fields{
				"status":      c.Writer.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		}()
		c.Next()
	}
}
