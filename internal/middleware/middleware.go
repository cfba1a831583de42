// Package middleware HTTP middleware обоих серверов: логирование запросов,
// gzip и JWT-cookie клиента генератора.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/auth"
)

type contextKey string

const (
	// ClientKey ключ личности клиента в контексте запроса
	ClientKey contextKey = "client"
	// ClientCookieName имя cookie с JWT клиента
	ClientCookieName = "qr_client"
)

// ClientAuthenticator выпускает анонимный токен на пустой строке
// и проверяет непустой
type ClientAuthenticator interface {
	SignIn(ctx context.Context, token string) (auth.Identity, error)
}

// ClientFromContext извлекает личность клиента, положенную ClientCookie
func ClientFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ClientKey).(auth.Identity)
	return id, ok && id.UserID != ""
}

// ClientIDFromContext извлекает ID клиента
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ClientFromContext(ctx)
	return id.UserID, ok
}

// WithClient кладет личность клиента в контекст
func WithClient(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ClientKey, id)
}

// ClientCookie выдает браузеру JWT анонимного пользователя.
// Отсутствующая, поддельная или просроченная cookie заменяется новой.
func ClientCookie(authn ClientAuthenticator, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(ClientCookieName); err == nil && cookie.Value != "" {
				if id, err := authn.SignIn(r.Context(), cookie.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), id)))
					return
				}
				logger.Debug("Client token rejected, issuing a new one")
			}

			id, err := authn.SignIn(r.Context(), "")
			if err != nil {
				logger.Error("Error issuing client token", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookieName,
				Value:    id.Token,
				Path:     "/",
				Expires:  id.ExpiresAt,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), id)))
		})
	}
}
