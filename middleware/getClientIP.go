package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientKey identifies the caller for rate limiting.
func clientKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("conversationID")); id != "" {
		return "conversation:" + id
	}
	return "ip:" + getClientIP(c)
}

func getClientIP(c *gin.Context) string {
	// First entry of X-Forwarded-For, then X-Real-IP.
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
