package middleware

import (
	"tourbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags the request with an id and a logger carrying it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(utils.ContextKeyRequestID, id)
		c.Set("logger", utils.GetLogger().With(zap.String("request_id", id)))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
