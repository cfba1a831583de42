// Package app собирает приложения из компонентов: генератор QR-кодов
// с веб-интерфейсом и сервис сокращения ссылок.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/audit"
	"github.com/toolboxtech/qr-utility/internal/auth"
	"github.com/toolboxtech/qr-utility/internal/buildinfo"
	"github.com/toolboxtech/qr-utility/internal/config"
	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/render"
	"github.com/toolboxtech/qr-utility/internal/server"
	"github.com/toolboxtech/qr-utility/internal/share"
	"github.com/toolboxtech/qr-utility/internal/shortclient"
	"github.com/toolboxtech/qr-utility/internal/web"
)

const (
	userAgentName   = "qr-utility"
	janitorInterval = time.Minute
	engineTimeout   = 15 * time.Second
	clientTokenTTL  = 30 * 24 * time.Hour
)

// App приложение генератора QR-кодов
type App struct {
	config   *config.Config
	logger   *zap.Logger
	registry *web.Registry
	audit    *audit.Logger
	server   *server.HTTPServer
	handler  http.Handler
}

// NewApp создает приложение генератора: журнал скачиваний, вход,
// клиент API сокращения, рендерер и HTTP-слой.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, info *buildinfo.Info) (*App, error) {
	sink, err := audit.NewSink(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating audit sink: %w", err)
	}
	auditLog := audit.NewLogger(sink, cfg.AppID, cfg.AppContext, cfg.AuditTimeout, logger)

	authn, err := auth.NewAuthenticator(cfg.SecretKey, cfg.AppID, clientTokenTTL)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error creating authenticator: %w", err), auditLog.Close())
	}

	shortener := shortclient.New(cfg.ShortenerAPIURL, logger,
		shortclient.WithTimeout(cfg.ShortenTimeout),
		shortclient.WithUserAgent(info.UserAgent(userAgentName)))

	loader := newOnceLoader(render.NewLoader(cfg.LogoURL, logger))

	settings := generator.DefaultDeriveSettings()
	settings.DisplayDomain = cfg.ShortLinkDomain
	settings.APIBaseURL = cfg.BaseURL
	settings.JarBaseURL = cfg.JarBaseURL

	// сессия входит с JWT из cookie браузера; заранее выданный токен
	// используется только для клиента без него
	factory := func(token string) (*generator.Session, error) {
		if token == "" {
			token = cfg.InitialAuthToken
		}
		return generator.NewSession(generator.Options{
			Settings:       settings,
			LogoURL:        cfg.LogoURL,
			DebounceWindow: cfg.DebounceWindow,
			Clock:          generator.RealClock(),
			Loader:         loader,
			Authenticator:  authn,
			InitialToken:   token,
			Shortener:      shortener,
			Auditor:        auditLog,
			Logger:         logger,
		})
	}
	registry := web.NewRegistry(factory, cfg.SessionTTL, logger)

	enc, err := share.NewEncoder([]byte(cfg.SecretKey))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error creating share encoder: %w", err), auditLog.Close())
	}

	engineCtx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()
	engine, err := loader.Load(engineCtx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error loading renderer: %w", err), auditLog.Close())
	}

	webServer := web.NewServer(web.Options{
		Registry:      registry,
		Share:         enc,
		Engine:        engine,
		LogoURL:       cfg.LogoURL,
		Authenticator: authn,
		Secure:        cfg.IsHTTPSEnabled(),
		Logger:        logger,
	})
	h := withProfiling(webServer.Router())

	return &App{
		config:   cfg,
		logger:   logger,
		registry: registry,
		audit:    auditLog,
		server:   server.NewHTTPServer(cfg.ServerAddress, h, cfg, logger),
		handler:  h,
	}, nil
}

// Handler корневой HTTP обработчик
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run обслуживает запросы до отмены ctx, затем закрывает сессии
// и дожидается записей журнала.
func (a *App) Run(ctx context.Context) error {
	janitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.registry.RunJanitor(janitorCtx, janitorInterval)

	err := a.server.Run(ctx)
	return errors.Join(err, a.Close())
}

// Close освобождает ресурсы приложения
func (a *App) Close() error {
	a.registry.Close()
	if err := a.audit.Close(); err != nil {
		a.logger.Error("Error closing audit log", zap.Error(err))
		return err
	}
	return nil
}

// withProfiling добавляет /debug/pprof к обработчику
func withProfiling(h http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/", h)
	return mux
}

// onceLoader загружает движок один раз и раздает его всем сессиям.
// Неудачная загрузка не запоминается.
type onceLoader struct {
	mu     sync.Mutex
	inner  generator.Loader
	engine generator.Engine
}

func newOnceLoader(inner generator.Loader) *onceLoader {
	return &onceLoader{inner: inner}
}

func (l *onceLoader) Load(ctx context.Context) (generator.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}
	e, err := l.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	l.engine = e
	return e, nil
}
