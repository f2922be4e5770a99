package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS adds CORS headers for the allowed origins. Requests from any other
// origin pass through without CORS headers instead of being rejected, so they
// still reach routing and the error boundary; the browser enforces the policy.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	normalized := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.ToLower(strings.TrimRight(o, "/"))
		if o == "" {
			continue
		}
		if _, dup := allowed[o]; !dup {
			allowed[o] = struct{}{}
			normalized = append(normalized, o)
		}
	}

	if len(normalized) == 0 {
		return func(c *gin.Context) {}
	}

	handler := cors.New(cors.Config{
		AllowOrigins:     normalized,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; !ok {
				return
			}
		}
		handler(c)
	}
}
