// Package auth устанавливает анонимную личность сессии генератора:
// либо по заранее выданному токену, либо анонимным входом.
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	defaultIssuer = "qr-utility"
	defaultTTL    = 24 * time.Hour
	keySize       = 32
)

// ErrInvalidToken возвращается для неподписанного, просроченного или
// испорченного токена
var ErrInvalidToken = errors.New("invalid auth token")

// Identity личность пользователя сессии
type Identity struct {
	UserID    string
	Anonymous bool
	Token     string
	ExpiresAt time.Time
}

// Authenticator выпускает и проверяет HS256 токены
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator создает Authenticator. Ключ подписи выводится через HKDF
// из секрета и идентификатора приложения, чтобы разные приложения с одним
// секретом не принимали токены друг друга.
func NewAuthenticator(secret, appID string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(appID), []byte("qr-utility auth"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("auth: derive key: %w", err)
	}

	return &Authenticator{
		secret: key,
		issuer: defaultIssuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// SignIn устанавливает личность: пустой токен означает анонимный вход
func (a *Authenticator) SignIn(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	if token != "" {
		return a.Validate(token)
	}

	id := Identity{UserID: uuid.NewString(), Anonymous: true}
	signed, exp, err := a.mint(id)
	if err != nil {
		return Identity{}, err
	}
	id.Token = signed
	id.ExpiresAt = exp
	return id, nil
}

// Mint выпускает токен для личности
func (a *Authenticator) Mint(id Identity) (string, error) {
	signed, _, err := a.mint(id)
	return signed, err
}

func (a *Authenticator) mint(id Identity) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl).Truncate(time.Second)
	claims := models.UserClaims{
		UserID:    id.UserID,
		Anonymous: id.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Validate проверяет токен и возвращает личность
func (a *Authenticator) Validate(token string) (Identity, error) {
	claims := &models.UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	id := Identity{UserID: claims.UserID, Anonymous: claims.Anonymous, Token: token}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
