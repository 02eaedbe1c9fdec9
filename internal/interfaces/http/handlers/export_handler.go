package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/repository"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// ExportHandler serves session downloads.
type ExportHandler struct {
	store  repository.ChatRepository
	logger *zap.Logger
}

// NewExportHandler creates the export handler.
func NewExportHandler(store repository.ChatRepository, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		store:  store,
		logger: logger,
	}
}

// Export renders a session as a file download.
// GET /export/:id/:format
func (h *ExportHandler) Export(c *gin.Context) {
	id := c.Param("id")
	format := repository.ExportFormat(c.Param("format"))

	content, err := h.store.ExportSession(c.Request.Context(), id, format)
	if err != nil {
		if domainErrors.IsCode(err, domainErrors.CodeUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Use json or txt"})
			return
		}
		h.logger.Error("Export failed", zap.String("session_id", id), zap.Error(err))
		c.JSON(domainErrors.HTTPStatus(err), gin.H{"error": domainErrors.Message(err)})
		return
	}

	contentType := "text/plain"
	if format == repository.ExportJSON {
		contentType = "application/json"
	}

	filename := fmt.Sprintf("chat_export_%s_%s.%s", id, time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, []byte(content))
}
