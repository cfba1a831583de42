package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/share"
)

const msgInvalidShare = "Invalid share link"

type shareResponse struct {
	Token string `json:"token"`
	PNG   string `json:"png"`
	SVG   string `json:"svg"`
}

// handleShare подписывает текущий контент и стиль сессии в ссылку
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	if s.share == nil {
		s.writeError(w, http.StatusNotFound, "Sharing is disabled", nil)
		return
	}

	st := e.Session.State()
	token, err := s.share.Encode(share.Payload{Content: st.Content, Style: st.Style})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), &st)
		return
	}
	s.writeJSON(w, http.StatusOK, shareResponse{
		Token: token,
		PNG:   "/qr/" + token + "." + string(generator.FormatPNG),
		SVG:   "/qr/" + token + "." + string(generator.FormatSVG),
	})
}

// splitShareToken отделяет формат по последней точке: точка есть и внутри токена
func splitShareToken(v string) (token string, format generator.Format, err error) {
	i := strings.LastIndex(v, ".")
	if i <= 0 {
		return "", "", share.ErrInvalidToken
	}
	format, err = generator.ParseFormat(v[i+1:])
	if err != nil {
		return "", "", err
	}
	return v[:i], format, nil
}

// handleShared рендерит код по подписанной ссылке без сессии
func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	if s.share == nil || s.engine == nil {
		s.writeError(w, http.StatusNotFound, "Sharing is disabled", nil)
		return
	}

	token, format, err := splitShareToken(chi.URLParam(r, "token"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidShare, nil)
		return
	}
	p, err := s.share.Decode(token)
	if err != nil {
		s.logger.Info("Rejected share token", zap.Error(err))
		s.writeError(w, http.StatusBadRequest, msgInvalidShare, nil)
		return
	}

	inst, err := s.engine.New(generator.BuildRenderConfig(p.Content, p.Style, s.logoURL))
	if err != nil {
		s.logger.Error("Shared render failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Render failed", nil)
		return
	}
	file, err := inst.Download(r.Context(), generator.DownloadOptions{Name: "qr_code", Extension: format})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, generator.ErrUnknownFormat) {
			status = http.StatusBadRequest
		}
		s.logger.Error("Shared export failed", zap.Error(err))
		s.writeError(w, status, "Render failed", nil)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	writeFile(w, file, "inline", s.logger)
}
