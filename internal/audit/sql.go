package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

const logsTable = "download_logs"

// SQLSink хранилище журнала в реляционной БД. Общая часть для
// PostgreSQL и SQLite: отличаются только драйвер, диалект и плейсхолдеры.
type SQLSink struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *zap.Logger
}

// migrate применяет встроенные миграции диалекта
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// openSQL открывает соединение, проверяет его и применяет миграции
func openSQL(ctx context.Context, driver, dsn string, dialect goose.Dialect, dir string,
	placeholder sq.PlaceholderFormat, logger *zap.Logger) (*SQLSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}
	closeOnErr := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close DB connection", zap.Error(closeErr))
		}
	}

	if err := db.PingContext(ctx); err != nil {
		closeOnErr()
		return nil, fmt.Errorf("database connection check error: %w", err)
	}
	if err := migrate(ctx, db, dialect, dir); err != nil {
		closeOnErr()
		return nil, err
	}

	return &SQLSink{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		logger:  logger,
	}, nil
}

// Append вставляет документ; created_at проставляет база
func (s *SQLSink) Append(ctx context.Context, doc Document) error {
	data, err := encodeData(doc.Data)
	if err != nil {
		return err
	}

	query, args, err := s.builder.
		Insert(logsTable).
		Columns("id", "collection", "user_id", "type", "data", "app_context").
		Values(doc.ID, doc.Collection, doc.UserID, doc.Type, data, doc.AppContext).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert download log: %w", err)
	}
	return nil
}

// CheckConnection проверяет соединение с базой
func (s *SQLSink) CheckConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает соединение
func (s *SQLSink) Close() error {
	return s.db.Close()
}
