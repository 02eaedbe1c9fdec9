package application

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gemweb/gemweb/internal/application/usecase"
	"github.com/gemweb/gemweb/internal/domain/service"
	"github.com/gemweb/gemweb/internal/infrastructure/config"
	"github.com/gemweb/gemweb/internal/infrastructure/llm/gemini"
	"github.com/gemweb/gemweb/internal/infrastructure/persistence"
	httpiface "github.com/gemweb/gemweb/internal/interfaces/http"
	"github.com/gemweb/gemweb/internal/interfaces/http/handlers"
	"github.com/gemweb/gemweb/internal/render"
)

// App owns the wired application components.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	server *httpiface.Server
}

// NewApp wires store, registry, provider, formatter, use case and HTTP
// server from the configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := persistence.NewDBConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	store := persistence.NewGormChatRepository(db)
	registry := service.NewSessionRegistry(store, cfg.Gemini.Model, logger)
	provider := gemini.New(gemini.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  cfg.Gemini.APIKey,
	}, logger)
	formatter := render.NewFormatter()

	chat := usecase.NewChatUseCase(store, registry, provider, formatter, logger)

	server := httpiface.NewServer(
		httpiface.Config{
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
			Mode: cfg.Server.Mode,
		},
		handlers.NewChatHandler(chat, formatter, logger),
		handlers.NewSessionHandler(store, chat, logger),
		handlers.NewExportHandler(store, logger),
		handlers.NewModelHandler(provider, logger),
		logger,
	)

	return &App{
		cfg:    cfg,
		logger: logger,
		db:     db,
		server: server,
	}, nil
}

// Start launches the HTTP server.
func (a *App) Start(ctx context.Context) error {
	return a.server.Start(ctx)
}

// Stop shuts down the server and closes the database.
func (a *App) Stop(ctx context.Context) error {
	if err := a.server.Stop(ctx); err != nil {
		return err
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
