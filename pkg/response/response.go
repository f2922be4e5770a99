package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/pkg/apperror"
)

// Envelope wraps successful payloads.
type Envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// Health is the body of the health check.
type Health struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
}

func Success[T any](c *gin.Context, status int, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope[T]{Success: true, Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func NewHealth(now time.Time) Health {
	return Health{OK: true, Timestamp: now.UTC().Format(time.RFC3339Nano)}
}

// Error writes the classified envelope for err and aborts the chain.
func Error(c *gin.Context, err error) (apperror.Body, int) {
	body, status := apperror.Format(err)
	c.AbortWithStatusJSON(status, body)
	return body, status
}
