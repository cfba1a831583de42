// Package handler содержит HTTP-обработчики сервиса сокращения ссылок
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
	"github.com/toolboxtech/qr-utility/internal/service"
	"github.com/toolboxtech/qr-utility/internal/storage"
)

const (
	contentTypeJSON     = "application/json"
	maxRequestBodyBytes = 64 << 10

	invalidBodyMessage  = "Invalid request body"
	codeTakenMessage    = "Custom code is already taken"
	linkNotFoundMessage = "Link not found"
	internalMessage     = "Internal server error"
)

// LinkService операции, нужные обработчикам
type LinkService interface {
	Shorten(ctx context.Context, target string, customCode *string) (string, error)
	Resolve(ctx context.Context, code string) (string, error)
	ShortURL(code string) string
	CheckConnection(ctx context.Context) error
}

var _ LinkService = (*service.LinkService)(nil)

type Handler struct {
	service LinkService
	logger  *zap.Logger
}

func NewHandler(svc LinkService, logger *zap.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// Routes регистрирует маршруты API сокращения
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.HandlePing)
	r.Post("/api/shorten", h.HandleShorten)
	r.Get("/{code}", h.HandleRedirect)
}

// HandleShorten обрабатывает POST /api/shorten
func (h *Handler) HandleShorten(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, contentTypeJSON) {
		h.writeError(w, http.StatusBadRequest, "Invalid Content-Type")
		return
	}

	var req models.ShortenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}

	code, err := h.service.Shorten(r.Context(), req.TargetURL, req.CustomCode)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidCode):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, storage.ErrCodeConflict):
		h.logger.Info("Code conflict", zap.String("target", req.TargetURL))
		h.writeError(w, http.StatusConflict, codeTakenMessage)
		return
	default:
		h.logger.Error("Error creating short link", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, internalMessage)
		return
	}

	h.writeJSON(w, http.StatusCreated, models.ShortenResponse{ShortURL: h.service.ShortURL(code)})
}

// HandleRedirect обрабатывает GET /{code}
func (h *Handler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	target, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrLinkNotFound) {
			h.writeError(w, http.StatusNotFound, linkNotFoundMessage)
			return
		}
		h.logger.Error("Error resolving link", zap.String("code", code), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, internalMessage)
		return
	}

	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandlePing проверяет соединение с хранилищем
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CheckConnection(r.Context()); err != nil {
		h.logger.Error("Storage connection error", zap.Error(err))
		http.Error(w, "Storage connection error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error writing JSON response", zap.Error(err))
	}
}
