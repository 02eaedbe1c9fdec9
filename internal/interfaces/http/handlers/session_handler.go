package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/application/usecase"
	"github.com/gemweb/gemweb/internal/domain/repository"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// SessionHandler serves session listing, detail, deletion and search.
type SessionHandler struct {
	store  repository.ChatRepository
	chat   *usecase.ChatUseCase
	logger *zap.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(store repository.ChatRepository, chat *usecase.ChatUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		chat:   chat,
		logger: logger,
	}
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query string `json:"query"`
}

// List returns all sessions, most recently updated first.
// GET /sessions
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context(), 50)
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Detail returns one session with its full message history.
// GET /sessions/:id
func (h *SessionHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	session, err := h.store.GetSession(c.Request.Context(), id)
	if err != nil {
		if domainErrors.IsCode(err, domainErrors.CodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	messages, err := h.store.GetMessages(c.Request.Context(), id)
	if err != nil {
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"messages": messages,
	})
}

// Delete removes a session and its messages, dropping any live context.
// DELETE /sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.chat.Clear(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", zap.String("session_id", id), zap.Error(err))
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}

// Search runs a substring search over all messages.
// POST /search
func (h *SessionHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No query provided"})
		return
	}

	results, err := h.store.SearchMessages(c.Request.Context(), req.Query, 50)
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
