package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/config"
)

// NewSink выбирает хранилище по конфигурации: DATABASE_DSN, затем
// SQLITE_PATH, затем AUDIT_FILE_PATH, иначе память.
func NewSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case cfg.DatabaseDSN != "":
		logger.Info("Using PostgreSQL audit sink")
		return NewPostgresSink(ctx, cfg.DatabaseDSN, logger)
	case cfg.SQLitePath != "":
		logger.Info("Using SQLite audit sink", zap.String("path", cfg.SQLitePath))
		return NewSQLiteSink(ctx, cfg.SQLitePath, logger)
	case cfg.AuditFilePath != "":
		logger.Info("Using file audit sink", zap.String("path", cfg.AuditFilePath))
		return NewFileSink(cfg.AuditFilePath, logger)
	default:
		logger.Info("Using in-memory audit sink")
		return NewMemorySink(), nil
	}
}
