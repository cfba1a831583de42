package audit

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // драйвер sqlite без cgo
)

// NewSQLiteSink открывает файл SQLite и применяет миграции
func NewSQLiteSink(ctx context.Context, path string, logger *zap.Logger) (*SQLSink, error) {
	sink, err := openSQL(ctx, "sqlite", path, goose.DialectSQLite3, "migrations/sqlite", sq.Question, logger)
	if err != nil {
		return nil, err
	}
	// SQLite допускает одного писателя; ":memory:" живет в одном соединении
	sink.db.SetMaxOpenConns(1)
	return sink, nil
}
