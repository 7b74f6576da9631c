package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Chat endpoints
	StartHandler    gin.HandlerFunc
	MessageHandler  gin.HandlerFunc
	CallbackHandler gin.HandlerFunc

	// Admin endpoints
	DownloadLogsHandler gin.HandlerFunc

	// Shared secret for the chat endpoints and bearer token for admin ones.
	// Empty WebhookSecret leaves chat open.
	WebhookSecret string
	AdminToken    string
}

// NewHandlerBundle assembles the bundle from its handlers.
func NewHandlerBundle(chat *ChatHandler, logs *LogsHandler, webhookSecret, adminToken string) *HandlerBundle {
	return &HandlerBundle{
		StartHandler:        chat.StartHandler,
		MessageHandler:      chat.MessageHandler,
		CallbackHandler:     chat.CallbackHandler,
		DownloadLogsHandler: logs.DownloadHandler,
		WebhookSecret:       webhookSecret,
		AdminToken:          adminToken,
	}
}
