// Package service реализует логику сервиса сокращения ссылок
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/storage"
)

const (
	// CodeLength длина сгенерированного кода
	CodeLength = 8
	// maxGenerateAttempts попыток подобрать свободный код
	maxGenerateAttempts = 5
)

var (
	// ErrInvalidURL цель не является абсолютной http(s) ссылкой
	ErrInvalidURL = errors.New("target must be an absolute http(s) URL")
	// ErrInvalidCode пользовательский код не прошел проверку
	ErrInvalidCode = errors.New("custom code must be 3-32 characters of letters, digits, '-' or '_' and not a reserved name")
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// reservedCodes совпадают с маршрутами сервера и не дошли бы до редиректа
var reservedCodes = map[string]bool{
	"ping":  true,
	"api":   true,
	"debug": true,
}

// LinkService создает и разрешает короткие ссылки
type LinkService struct {
	storage storage.LinkStorage
	baseURL string
	logger  *zap.Logger
	// codeGen подменяется в тестах
	codeGen func() (string, error)
}

// NewLinkService создает сервис поверх хранилища. baseURL используется
// для построения полной короткой ссылки.
func NewLinkService(st storage.LinkStorage, baseURL string, logger *zap.Logger) *LinkService {
	return &LinkService{
		storage: st,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		codeGen: randomCode,
	}
}

// Shorten сохраняет цель и возвращает код. Пустой или nil customCode
// означает генерацию кода; занятый пользовательский код дает
// storage.ErrCodeConflict.
func (s *LinkService) Shorten(ctx context.Context, target string, customCode *string) (string, error) {
	target = strings.TrimSpace(target)
	if !validTarget(target) {
		return "", ErrInvalidURL
	}

	if customCode != nil && *customCode != "" {
		code := *customCode
		if !codePattern.MatchString(code) || reservedCodes[code] {
			return "", ErrInvalidCode
		}
		if err := s.storage.Save(ctx, code, target); err != nil {
			return "", err
		}
		s.logger.Info("Short link created", zap.String("code", code), zap.Bool("custom", true))
		return code, nil
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := s.codeGen()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		err = s.storage.Save(ctx, code, target)
		if err == nil {
			s.logger.Info("Short link created", zap.String("code", code), zap.Int("attempt", attempt))
			return code, nil
		}
		if !errors.Is(err, storage.ErrCodeConflict) {
			return "", err
		}
		s.logger.Debug("Generated code collision", zap.String("code", code))
	}
	return "", fmt.Errorf("no free code after %d attempts: %w", maxGenerateAttempts, storage.ErrCodeConflict)
}

// Resolve возвращает цель по коду
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	return s.storage.Get(ctx, code)
}

// ShortURL строит полную короткую ссылку для кода
func (s *LinkService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// CheckConnection проверяет хранилище
func (s *LinkService) CheckConnection(ctx context.Context) error {
	return s.storage.CheckConnection(ctx)
}

func validTarget(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// randomCode 6 случайных байт дают ровно 8 символов base64url
func randomCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
