package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookSecretHeader carries the shared secret of the chat endpoints.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecretMiddleware rejects chat calls without the shared secret. An
// empty secret disables the check.
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			zap.L().Warn("Rejected webhook call", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid webhook secret"})
			return
		}
		c.Next()
	}
}
