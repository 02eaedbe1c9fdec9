package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/application/usecase"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// Formatter renders arbitrary text into sanitized HTML, for previews.
type Formatter interface {
	Format(text string) (string, error)
}

// ChatHandler serves the chat turn, clear and format-preview endpoints.
type ChatHandler struct {
	chat      *usecase.ChatUseCase
	formatter Formatter
	logger    *zap.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chat *usecase.ChatUseCase, formatter Formatter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		formatter: formatter,
		logger:    logger,
	}
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ClearRequest is the POST /clear body.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

// FormatPreviewRequest is the POST /format-preview body.
type FormatPreviewRequest struct {
	Text string `json:"text"`
}

// Chat handles one chat turn.
// POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		return
	}

	result, err := h.chat.Send(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("Chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Clear deletes a session's history and drops its live context.
// POST /clear
func (h *ChatHandler) Clear(c *gin.Context) {
	var req ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.chat.Clear(c.Request.Context(), req.SessionID); err != nil {
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat cleared successfully"})
}

// FormatPreview runs the formatter on arbitrary input for UI previews.
// POST /format-preview
func (h *ChatHandler) FormatPreview(c *gin.Context) {
	var req FormatPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	formatted, err := h.formatter.Format(req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"formatted": formatted})
}
