// Package web HTTP-интерфейс генератора: одна сессия генератора на
// браузер, JSON API для управления ею и HTML-страница.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/middleware"
	"github.com/toolboxtech/qr-utility/internal/share"
)

const contentTypeJSON = "application/json"

// Options зависимости HTTP-слоя
type Options struct {
	Registry *Registry
	// Share подписывает ссылки /qr/{token}; nil отключает их
	Share *share.Encoder
	// Engine рендерит коды по ссылкам без сессии
	Engine  generator.Engine
	LogoURL string
	// Authenticator выпускает JWT-cookie клиента
	Authenticator middleware.ClientAuthenticator
	Secure        bool
	Logger        *zap.Logger
}

// Server обработчики генератора
type Server struct {
	registry *Registry
	share    *share.Encoder
	engine   generator.Engine
	logoURL  string
	authn    middleware.ClientAuthenticator
	secure   bool
	logger   *zap.Logger
}

// NewServer создает HTTP-слой
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		registry: opts.Registry,
		share:    opts.Share,
		engine:   opts.Engine,
		logoURL:  opts.LogoURL,
		authn:    opts.Authenticator,
		secure:   opts.Secure,
		logger:   opts.Logger,
	}
}

// Router собирает маршруты и middleware
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LoggerMiddleware(s.logger))
	r.Use(middleware.GzipMiddleware)

	r.Get("/ping", s.handlePing)
	r.Get("/qr/{token}", s.handleShared)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientCookie(s.authn, s.secure, s.logger))

		r.Get("/", s.handleIndex)
		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDelete)
			r.Put("/type", s.handleSetType)
			r.Put("/input", s.handleSetInput)
			r.Put("/code", s.handleSetCode)
			r.Put("/style", s.handleSetStyle)
			r.Post("/shorten", s.handleShorten)
			r.Get("/preview.svg", s.handlePreview)
			r.Get("/download/{format}", s.handleDownload)
			r.Post("/share", s.handleShare)
		})
	})
	return r
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// errorResponse тело ответа при ошибке операции над сессией
type errorResponse struct {
	Message string           `json:"message"`
	State   *generator.State `json:"state,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error writing JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, st *generator.State) {
	s.writeJSON(w, status, errorResponse{Message: msg, State: st})
}
