package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/config"
	"github.com/toolboxtech/qr-utility/internal/handler"
	"github.com/toolboxtech/qr-utility/internal/middleware"
	"github.com/toolboxtech/qr-utility/internal/server"
	"github.com/toolboxtech/qr-utility/internal/service"
	"github.com/toolboxtech/qr-utility/internal/storage"
)

// ShortenerApp сервис сокращения ссылок
type ShortenerApp struct {
	config  *config.Config
	logger  *zap.Logger
	router  *chi.Mux
	storage storage.LinkStorage
	server  *server.HTTPServer
}

// NewShortenerApp создает сервис сокращения поверх выбранного хранилища
func NewShortenerApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ShortenerApp, error) {
	st, err := storage.NewStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating storage: %w", err)
	}

	svc := service.NewLinkService(st, cfg.BaseURL, logger)
	h := handler.NewHandler(svc, logger)

	a := &ShortenerApp{
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		storage: st,
	}
	a.setupRoutes(h)
	a.server = server.NewHTTPServer(cfg.ShortenerAddress, a.router, cfg, logger)
	return a, nil
}

func (a *ShortenerApp) setupRoutes(h *handler.Handler) {
	a.router.Use(chimiddleware.RequestID)
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.LoggerMiddleware(a.logger))
	a.router.Use(middleware.GzipMiddleware)

	// Профилирование
	a.router.Mount("/debug/pprof", http.DefaultServeMux)

	h.Routes(a.router)
}

// Handler корневой HTTP обработчик
func (a *ShortenerApp) Handler() http.Handler {
	return a.router
}

// Run обслуживает запросы до отмены ctx и закрывает хранилище
func (a *ShortenerApp) Run(ctx context.Context) error {
	err := a.server.Run(ctx)
	return errors.Join(err, a.Close())
}

// Close закрывает хранилище
func (a *ShortenerApp) Close() error {
	return a.storage.Close()
}
