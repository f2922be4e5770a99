package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/infrastructure/metrics"
	"github.com/piousdev/roel-agency/pkg/apperror"
	"github.com/piousdev/roel-agency/pkg/response"
	"github.com/piousdev/roel-agency/pkg/tracking"
)

// ErrorHandler is the single place where failures become responses. Handlers
// report failures with c.Error and return; panics are recovered as unexpected
// errors. Each failure is logged, offered to the reporting gate and written
// as the classified envelope.
func ErrorHandler(logger *logrus.Logger, gate *tracking.Gate, rec metrics.Recorder) gin.HandlerFunc {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				handleError(c, logger, gate, rec, panicError(r))
			}
		}()

		c.Next()

		if last := c.Errors.Last(); last != nil {
			handleError(c, logger, gate, rec, last.Err)
		}
	}
}

func handleError(c *gin.Context, logger *logrus.Logger, gate *tracking.Gate, rec metrics.Recorder, err error) {
	extra := map[string]any{
		"request_id": c.GetString(RequestIDKey),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}
	logger.WithFields(logrus.Fields(extra)).WithError(err).Error("Request failed")

	reported := false
	if gate != nil {
		reported = gate.Forward(err, extra)
	}

	var body apperror.Body
	if c.Writer.Written() {
		body, _ = apperror.Format(err)
	} else {
		body, _ = response.Error(c, err)
	}
	rec.RecordError(string(body.Error), reported)
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
