package handlers

import (
	"context"
	"net/http"
	"strings"

	"tourbot/models"
	"tourbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Conversation is the part of the assistant the chat endpoints drive.
type Conversation interface {
	Start(ctx context.Context, id string) (models.ChatResponse, error)
	HandleText(ctx context.Context, id, text string) (models.ChatResponse, error)
	HandleCallback(ctx context.Context, id, data string) (models.ChatResponse, error)
}

// ChatHandler exposes a Conversation over HTTP.
type ChatHandler struct {
	Conversation Conversation
}

func NewChatHandler(conv Conversation) *ChatHandler {
	return &ChatHandler{Conversation: conv}
}

func conversationID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("conversationID"))
	if id == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing conversation id", "")
		return "", false
	}
	return id, true
}

// StartHandler resets the conversation and returns the greeting.
func (h *ChatHandler) StartHandler(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	resp, err := h.Conversation.Start(c.Request.Context(), id)
	h.reply(c, id, resp, err)
}

// MessageHandler handles a free-text user message.
func (h *ChatHandler) MessageHandler(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message", "text is empty")
		return
	}
	resp, err := h.Conversation.HandleText(c.Request.Context(), id, req.Text)
	h.reply(c, id, resp, err)
}

// CallbackHandler handles a pressed button.
func (h *ChatHandler) CallbackHandler(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		return
	}
	var req models.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid callback", err.Error())
		return
	}
	resp, err := h.Conversation.HandleCallback(c.Request.Context(), id, strings.TrimSpace(req.Data))
	h.reply(c, id, resp, err)
}

func (h *ChatHandler) reply(c *gin.Context, id string, resp models.ChatResponse, err error) {
	logger := getLogger(c)
	if err != nil {
		logger.Error("Chat turn failed", zap.String("conversation", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to process message", "")
		return
	}
	logger.Info("Chat turn", zap.String("conversation", id), zap.String("stage", resp.Stage), zap.Int("messages", len(resp.Messages)))
	c.JSON(http.StatusOK, resp)
}
