package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/pkg/apperror"
)

// NotFound turns unmatched routes into a NOT_FOUND failure.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperror.NotFound(fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)))
		c.Abort()
	}
}
