// Package server содержит общую логику запуска HTTP и HTTPS серверов
// и инициализации логгера для обеих команд.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toolboxtech/qr-utility/internal/config"
)

// ShutdownTimeout время на завершение активных запросов
const ShutdownTimeout = 10 * time.Second

// HTTPServer HTTP сервер с общей логикой запуска и остановки
type HTTPServer struct {
	server *http.Server
	config *config.Config
	logger *zap.Logger
}

// NewHTTPServer создает сервер для обработчика на адресе addr
func NewHTTPServer(addr string, handler http.Handler, cfg *config.Config, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// Addr адрес прослушивания
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start запускает HTTP или HTTPS сервер в зависимости от конфигурации.
// Блокирует до остановки; штатная остановка не считается ошибкой.
func (s *HTTPServer) Start() error {
	var err error
	if s.config.IsHTTPSEnabled() {
		s.logger.Info("Starting HTTPS server",
			zap.String("address", s.server.Addr),
			zap.String("cert", s.config.TLSCertFile),
			zap.String("key", s.config.TLSKeyFile))
		err = s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown завершает сервер, дожидаясь активных запросов
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", zap.String("address", s.server.Addr))
	return s.server.Shutdown(ctx)
}

// Run запускает сервер и останавливает его при отмене ctx
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// InitLogger создает production логгер заданного уровня и функцию синхронизации
func InitLogger(level string) (*zap.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing logger: %w", err)
	}

	cleanup := func() {
		// Sync на stderr в некоторых ОС возвращает ошибку, ее игнорируем
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}
