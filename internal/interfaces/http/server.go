package http

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/interfaces/http/handlers"
	"github.com/gemweb/gemweb/internal/render"
	"github.com/gemweb/gemweb/pkg/safego"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP boundary.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config configures the HTTP server.
type Config struct {
	Host string
	Port int
	Mode string // local, production
}

// NewServer builds the gin router and wires every route.
func NewServer(
	cfg Config,
	chatHandler *handlers.ChatHandler,
	sessionHandler *handlers.SessionHandler,
	exportHandler *handlers.ExportHandler,
	modelHandler *handlers.ModelHandler,
	logger *zap.Logger,
) *Server {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	setupRoutes(router, chatHandler, sessionHandler, exportHandler, modelHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return &Server{
		server: server,
		logger: logger,
	}
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	safego.Go(s.logger, "http-server", func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	})

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(
	router *gin.Engine,
	chatHandler *handlers.ChatHandler,
	sessionHandler *handlers.SessionHandler,
	exportHandler *handlers.ExportHandler,
	modelHandler *handlers.ModelHandler,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// The highlight stylesheet is static configuration, rendered into the
	// page once.
	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"CodeStyles": template.CSS(render.CodeStyles()),
		})
	})

	router.POST("/chat", chatHandler.Chat)
	router.POST("/clear", chatHandler.Clear)
	router.POST("/format-preview", chatHandler.FormatPreview)

	router.GET("/sessions", sessionHandler.List)
	router.GET("/sessions/:id", sessionHandler.Detail)
	router.DELETE("/sessions/:id", sessionHandler.Delete)
	router.POST("/search", sessionHandler.Search)

	router.GET("/export/:id/:format", exportHandler.Export)
	router.GET("/models", modelHandler.List)
}

func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
