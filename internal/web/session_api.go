package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/middleware"
	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	maxBodyBytes = 16 << 10

	msgInvalidBody   = "Invalid request body"
	msgNoClient      = "Missing client id"
	msgLoading       = "Loading QR generator..."
	msgRendererError = "QR generator failed to load."
)

type typeRequest struct {
	ContentType string `json:"contentType"`
}

type inputRequest struct {
	Input string `json:"input"`
}

type codeRequest struct {
	CustomCode string `json:"customCode"`
}

// entry находит (или создает) сессию клиента запроса
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	client, ok := middleware.ClientFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, msgNoClient, nil)
		return nil, false
	}
	e, err := s.registry.Get(client.UserID, client.Token)
	if err != nil {
		s.logger.Error("Session unavailable", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
		return nil, false
	}
	return e, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return false
	}
	return true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, e.Session.State())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if clientID, ok := middleware.ClientIDFromContext(r.Context()); ok {
		s.registry.Remove(clientID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetType(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req typeRequest
	if !s.decode(w, r, &req) {
		return
	}
	ct, err := models.ParseContentType(req.ContentType)
	if err != nil {
		st := e.Session.State()
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), &st)
		return
	}
	e.Session.SetContentType(ct)
	s.writeJSON(w, http.StatusOK, e.Session.State())
}

// handleSetInput принимает ввод; производный контент обновится после окна тишины
func (s *Server) handleSetInput(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if !s.decode(w, r, &req) {
		return
	}
	e.Session.SetInput(req.Input)
	s.writeJSON(w, http.StatusOK, e.Session.State())
}

func (s *Server) handleSetCode(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if !s.decode(w, r, &req) {
		return
	}
	e.Session.SetCustomCode(req.CustomCode)
	s.writeJSON(w, http.StatusOK, e.Session.State())
}

func (s *Server) handleSetStyle(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var patch models.StylePatch
	if !s.decode(w, r, &patch) {
		return
	}
	if _, err := e.Session.UpdateStyle(patch); err != nil {
		st := e.Session.State()
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), &st)
		return
	}
	s.writeJSON(w, http.StatusOK, e.Session.State())
}

func (s *Server) handleShorten(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	err := e.Session.Shorten(r.Context())
	st := e.Session.State()
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, st)
	case errors.Is(err, generator.ErrEmptyTarget), errors.Is(err, generator.ErrNoScheme):
		s.writeError(w, http.StatusUnprocessableEntity, st.ShortLink.Status, &st)
	case errors.Is(err, generator.ErrShortenInFlight):
		s.writeError(w, http.StatusConflict, err.Error(), &st)
	default:
		s.writeError(w, http.StatusBadGateway, st.ShortLink.Status, &st)
	}
}

// handlePreview отдает текущий предпросмотр. Пока рендерер не загружен,
// отвечает 503 с заглушкой.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	p, version, ok := e.Preview.Latest()
	if !ok {
		msg := msgLoading
		if e.Session.State().RendererFailed {
			msg = msgRendererError
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write(placeholderSVG(msg)); err != nil {
			s.logger.Error("Error writing placeholder", zap.Error(err))
		}
		return
	}

	etag := `"` + strconv.FormatUint(version, 10) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", p.ContentType)
	if _, err := w.Write(p.Data); err != nil {
		s.logger.Error("Error writing preview", zap.Error(err))
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	format, err := generator.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	file, ok := e.Session.Download(r.Context(), format)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeFile(w, file, "attachment", s.logger)
}

func writeFile(w http.ResponseWriter, f generator.File, disposition string, logger *zap.Logger) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+f.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	if _, err := w.Write(f.Data); err != nil {
		logger.Error("Error writing file", zap.Error(err))
	}
}
