package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
	"github.com/toolboxtech/qr-utility/internal/service"
	"github.com/toolboxtech/qr-utility/internal/storage"
)

func newTestRouter(t *testing.T) (*chi.Mux, *storage.MemoryStorage) {
	t.Helper()
	st := storage.NewMemoryStorage()
	h := NewHandler(service.NewLinkService(st, "http://short.test", zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	h.Routes(r)
	return r, st
}

func TestHandleShorten(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantShort   string
		wantDetail  string
	}{
		{
			name:       "custom code",
			body:       `{"target_url":"https://example.com/x","custom_code":"promo"}`,
			wantStatus: http.StatusCreated,
			wantShort:  "http://short.test/promo",
		},
		{
			name:        "generated code",
			contentType: "application/json; charset=utf-8",
			body:        `{"target_url":"https://example.com/x","custom_code":null}`,
			wantStatus:  http.StatusCreated,
		},
		{
			name:       "taken code",
			body:       `{"target_url":"https://example.com/y","custom_code":"taken"}`,
			wantStatus: http.StatusConflict,
			wantDetail: codeTakenMessage,
		},
		{
			name:       "invalid target",
			body:       `{"target_url":"not a url"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: service.ErrInvalidURL.Error(),
		},
		{
			name:       "invalid code",
			body:       `{"target_url":"https://example.com","custom_code":"a/b"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: service.ErrInvalidCode.Error(),
		},
		{
			name:       "code shadowed by ping route",
			body:       `{"target_url":"https://example.com","custom_code":"ping"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: service.ErrInvalidCode.Error(),
		},
		{
			name:       "broken json",
			body:       `{"target_url":`,
			wantStatus: http.StatusBadRequest,
			wantDetail: invalidBodyMessage,
		},
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        "https://example.com",
			wantStatus:  http.StatusBadRequest,
			wantDetail:  "Invalid Content-Type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, st := newTestRouter(t)
			require.NoError(t, st.Save(context.Background(), "taken", "https://example.com/old"))

			req := httptest.NewRequest(http.MethodPost, "/api/shorten", strings.NewReader(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = contentTypeJSON
			}
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, contentTypeJSON, rr.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusCreated {
				var resp models.ShortenResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				if tt.wantShort != "" {
					assert.Equal(t, tt.wantShort, resp.ShortURL)
				} else {
					assert.True(t, strings.HasPrefix(resp.ShortURL, "http://short.test/"))
					assert.Len(t, strings.TrimPrefix(resp.ShortURL, "http://short.test/"), service.CodeLength)
				}
				return
			}

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.wantDetail, resp.Detail)
		})
	}
}

func TestHandleRedirect(t *testing.T) {
	r, st := newTestRouter(t)
	require.NoError(t, st.Save(context.Background(), "abc", "https://example.com/target"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/abc", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "https://example.com/target", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"detail":"Link not found"}`, rr.Body.String())
}

type failingService struct{ LinkService }

func (failingService) Resolve(context.Context, string) (string, error) {
	return "", errors.New("db down")
}

func (failingService) Shorten(context.Context, string, *string) (string, error) {
	return "", errors.New("db down")
}

func (failingService) CheckConnection(context.Context) error { return errors.New("db down") }

func TestHandler_InternalErrors(t *testing.T) {
	h := NewHandler(failingService{}, zap.NewNop())
	r := chi.NewRouter()
	h.Routes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/shorten", strings.NewReader(`{"target_url":"https://example.com"}`))
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandlePing(t *testing.T) {
	r, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
