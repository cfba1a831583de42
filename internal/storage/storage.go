// Package storage хранит соответствия коротких кодов целевым ссылкам
// для сервиса сокращения.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/config"
)

// LinkStorage определяет интерфейс хранилища ссылок
type LinkStorage interface {
	// Save сохраняет ссылку. Занятый код дает ErrCodeConflict.
	Save(ctx context.Context, code, target string) error
	// Get возвращает целевую ссылку по коду или ErrLinkNotFound
	Get(ctx context.Context, code string) (string, error)
	// CheckConnection проверяет доступность хранилища
	CheckConnection(ctx context.Context) error
	Close() error
}

// NewStorage выбирает хранилище по конфигурации: PostgreSQL, файл, память
func NewStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LinkStorage, error) {
	switch {
	case cfg.DatabaseDSN != "":
		logger.Info("Using PostgreSQL link storage")
		s, err := NewPostgresStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres storage: %w", err)
		}
		return s, nil
	case cfg.FileStoragePath != "":
		logger.Info("Using file link storage", zap.String("path", cfg.FileStoragePath))
		s, err := NewFileStorage(cfg.FileStoragePath, logger)
		if err != nil {
			return nil, fmt.Errorf("file storage: %w", err)
		}
		return s, nil
	default:
		logger.Info("Using in-memory link storage")
		return NewMemoryStorage(), nil
	}
}
