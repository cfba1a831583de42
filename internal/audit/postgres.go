package audit

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // драйвер postgres для database/sql
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// NewPostgresSink подключается к PostgreSQL и применяет миграции
func NewPostgresSink(ctx context.Context, dsn string, logger *zap.Logger) (*SQLSink, error) {
	return openSQL(ctx, "postgres", dsn, goose.DialectPostgres, "migrations/postgres", sq.Dollar, logger)
}
