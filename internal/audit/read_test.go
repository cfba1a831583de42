package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
)

// Чтение журнала нужно только тестам: в приложении журнал только пишется.

const sqliteTimeFmt = "2006-01-02T15:04:05.999Z"

// readableSink хранилище, содержимое которого тест может проверить
type readableSink interface {
	Sink
	documents(ctx context.Context, userID string) ([]Document, error)
}

// documents документы пользователя в порядке записи
func (m *MemorySink) documents(_ context.Context, userID string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

// documents читает файл целиком и отбирает документы пользователя.
// Испорченные строки пропускаются.
func (f *FileSink) documents(ctx context.Context, userID string) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("error opening audit file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			f.logger.Error("Error closing audit file", zap.Error(err))
		}
	}()

	var out []Document
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			f.logger.Warn("Skipping malformed audit line", zap.Error(err))
			continue
		}
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading audit file: %w", err)
	}
	return out, nil
}

// documents документы пользователя от старых к новым
func (s *SQLSink) documents(ctx context.Context, userID string) ([]Document, error) {
	query, args, err := s.builder.
		Select("id", "collection", "user_id", "type", "data", "app_context", "created_at").
		From(logsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select download logs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("Error closing rows", zap.Error(err))
		}
	}()

	var out []Document
	for rows.Next() {
		var (
			doc       Document
			data      []byte
			createdAt any
		)
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.UserID, &doc.Type, &data, &doc.AppContext, &createdAt); err != nil {
			return nil, fmt.Errorf("scan download log: %w", err)
		}
		if doc.Data, err = decodeData(data); err != nil {
			return nil, err
		}
		if doc.Timestamp, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate download logs: %w", err)
	}
	return out, nil
}

// parseTimestamp приводит значение created_at, которое драйверы
// возвращают по-разному, к time.Time
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeFmt, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unexpected created_at value %q", s)
}

func decodeData(raw []byte) (models.AuditRecord, error) {
	var rec models.AuditRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode audit data: %w", err)
	}
	return rec, nil
}
