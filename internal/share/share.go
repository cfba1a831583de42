// Package share выпускает подписанные ссылки на QR-код, по которым код
// перерисовывается без сессии.
package share

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	tagSize   = 16 // 128 бит
	separator = "."
	// MaxContentLen ограничение на длину кодируемой строки в ссылке
	MaxContentLen = 2048
)

// ErrInvalidToken токен испорчен, подделан или не разбирается
var ErrInvalidToken = errors.New("invalid share token")

// Payload то, что переносит ссылка
type Payload struct {
	Content string              `msgpack:"c"`
	Style   models.StyleOptions `msgpack:"s"`
}

// Encoder подписывает и проверяет токены ссылок
type Encoder struct {
	key []byte
}

// NewEncoder создает Encoder. Ключ короче 32 байт растягивается через SHA-256.
func NewEncoder(key []byte) (*Encoder, error) {
	if len(key) == 0 {
		return nil, errors.New("share: empty key")
	}
	if len(key) < sha256.Size {
		h := sha256.Sum256(key)
		key = h[:]
	}
	return &Encoder{key: key}, nil
}

// Encode упаковывает данные в msgpack и подписывает: base64.подпись
func (e *Encoder) Encode(p Payload) (string, error) {
	if p.Content == "" {
		return "", errors.New("share: empty content")
	}
	if len(p.Content) > MaxContentLen {
		return "", fmt.Errorf("share: content longer than %d bytes", MaxContentLen)
	}

	packed, err := msgpack.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("share: encode payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(packed) + separator +
		base64.RawURLEncoding.EncodeToString(e.tag(packed)), nil
}

// Decode проверяет подпись и распаковывает данные
func (e *Encoder) Decode(token string) (Payload, error) {
	var p Payload

	data, sig, ok := strings.Cut(token, separator)
	if !ok {
		return p, fmt.Errorf("%w: missing signature", ErrInvalidToken)
	}
	packed, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	tag, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !hmac.Equal(tag, e.tag(packed)) {
		return p, fmt.Errorf("%w: signature verification failed", ErrInvalidToken)
	}

	if err := msgpack.Unmarshal(packed, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if p.Content == "" {
		return Payload{}, fmt.Errorf("%w: empty content", ErrInvalidToken)
	}
	return p, nil
}

func (e *Encoder) tag(data []byte) []byte {
	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	return mac.Sum(nil)[:tagSize]
}
