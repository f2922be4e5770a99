package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/pkg/apperror"
)

// BodyLimit rejects bodies larger than limit bytes. A declared oversize length
// fails immediately; otherwise the body reader fails once it passes limit.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			_ = c.Error(apperror.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large", nil))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
