package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const RealIPKey = "real_ip"

// RealIP stores the client address under "real_ip", preferring
// CF-Connecting-IP, then the left-most X-Forwarded-For entry, then X-Real-IP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RealIPKey, realIP(c))
		c.Next()
	}
}

func realIP(c *gin.Context) string {
	if ip := parseIP(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func parseIP(s string) string {
	if ip := net.ParseIP(strings.TrimSpace(s)); ip != nil {
		return ip.String()
	}
	return ""
}

// ClientIP returns the address stored by RealIP, falling back to Gin's.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(RealIPKey); ip != "" {
		return ip
	}
	return c.ClientIP()
}
