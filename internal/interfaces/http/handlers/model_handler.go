package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/infrastructure/llm/gemini"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// ModelLister proxies the provider's model catalog.
type ModelLister interface {
	ListModels(ctx context.Context) ([]gemini.ModelInfo, error)
}

// ModelHandler serves the model catalog listing.
type ModelHandler struct {
	lister ModelLister
	logger *zap.Logger
}

// NewModelHandler creates the model handler.
func NewModelHandler(lister ModelLister, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{
		lister: lister,
		logger: logger,
	}
}

// List returns the provider's content-generation-capable models.
// GET /models
func (h *ModelHandler) List(c *gin.Context) {
	models, err := h.lister.ListModels(c.Request.Context())
	if err != nil {
		h.logger.Error("Model listing failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": domainErrors.Message(domainErrors.NewUpstreamError("model listing failed", err))})
		return
	}

	if models == nil {
		models = []gemini.ModelInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
