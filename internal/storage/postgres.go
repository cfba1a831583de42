package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStorage хранит ссылки в PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage подключается к базе и создает таблицу links
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("database connection check error: %w", err), db.Close())
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS links (` +
		`code VARCHAR(32) PRIMARY KEY,` +
		`target TEXT NOT NULL,` +
		`created_at TIMESTAMPTZ NOT NULL DEFAULT now()` +
		`)`
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, errors.Join(fmt.Errorf("table creation error: %w", err), db.Close())
	}

	return &PostgresStorage{db: db}, nil
}

// Save сохраняет ссылку
func (ps *PostgresStorage) Save(ctx context.Context, code, target string) error {
	_, err := ps.db.ExecContext(ctx, "INSERT INTO links (code, target) VALUES ($1, $2)", code, target)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrCodeConflict
		}
		return fmt.Errorf("save link error: %w", err)
	}
	return nil
}

// Get получает целевую ссылку по коду
func (ps *PostgresStorage) Get(ctx context.Context, code string) (string, error) {
	var target string
	err := ps.db.QueryRowContext(ctx, "SELECT target FROM links WHERE code = $1", code).Scan(&target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("get link error: %w", err)
	}
	return target, nil
}

// CheckConnection проверяет соединение с базой данных
func (ps *PostgresStorage) CheckConnection(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}
