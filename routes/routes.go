package routes

import (
	"net/http"
	"time"

	"tourbot/handlers"
	"tourbot/middleware"
	"tourbot/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the conversation endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle, perMin int) {
	api := r.Group("/api/chat/:conversationID")
	{
		api.Use(middleware.WebhookSecretMiddleware(hb.WebhookSecret))
		api.Use(middleware.RateLimitMiddleware(perMin))
		api.POST("/start", hb.StartHandler)
		api.POST("/messages", hb.MessageHandler)
		api.POST("/callbacks", hb.CallbackHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm the tour assistant", "services": utils.GetHealthStatus()})
	})
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminTokenMiddleware(hb.AdminToken))
		adminGroup.GET("/logs", hb.DownloadLogsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, perMin int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", middleware.WebhookSecretHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	RegisterChatRoutes(r, hb, perMin)
	RegisterHealthRoute(r)
	RegisterAdminRoutes(r, hb)
}
