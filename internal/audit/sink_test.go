package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxtech/qr-utility/internal/config"
	"github.com/toolboxtech/qr-utility/internal/models"
)

// exerciseSink общая проверка поведения любого хранилища
func exerciseSink(t *testing.T, sink readableSink) {
	t.Helper()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Minute)
	for i, userID := range []string{"u-1", "u-2", "u-1"} {
		rec := sampleRecord()
		rec.Value = []string{"a", "b", "c"}[i]
		require.NoError(t, sink.Append(ctx, Document{
			ID:         uuid.NewString(),
			Collection: Collection("app", userID),
			UserID:     userID,
			Type:       DocumentType,
			Data:       rec,
			AppContext: "ctx",
		}))
	}

	docs, err := sink.documents(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Data.Value)
	assert.Equal(t, "c", docs[1].Data.Value)
	assert.Equal(t, models.ContentURL, docs[0].Data.ContentType)
	assert.Equal(t, "artifacts/app/users/u-1/download_logs", docs[0].Collection)
	assert.Equal(t, "ctx", docs[0].AppContext)
	assert.True(t, docs[0].Timestamp.After(before), "timestamp %v", docs[0].Timestamp)

	docs, err = sink.documents(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	exerciseSink(t, sink)

	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Append(context.Background(), Document{UserID: "u"}), ErrSinkClosed)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := NewFileSink(path, nil)
	require.NoError(t, err)
	exerciseSink(t, sink)
	require.NoError(t, sink.Close())

	// повреждения в файле не мешают чтению остальных строк
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewFileSink(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	docs, err := reopened.documents(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, reopened.Close())
	assert.ErrorIs(t, reopened.Append(context.Background(), Document{}), ErrSinkClosed)
}

func TestSQLiteSink(t *testing.T) {
	sink, err := NewSQLiteSink(context.Background(), filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.CheckConnection(context.Background()))
	exerciseSink(t, sink)
}

func TestSQLiteSinkMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	first, err := NewSQLiteSink(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Append(context.Background(), Document{
		ID: uuid.NewString(), Collection: "c", UserID: "u", Type: DocumentType, Data: sampleRecord(),
	}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteSink(context.Background(), path, nil)
	require.NoError(t, err)
	defer second.Close()

	docs, err := second.documents(context.Background(), "u")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestNewSinkSelection(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	sink, err := NewSink(ctx, &config.Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemorySink{}, sink)

	sink, err = NewSink(ctx, &config.Config{AuditFilePath: filepath.Join(dir, "a.jsonl")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
	require.NoError(t, sink.Close())

	// SQLite важнее файла
	sink, err = NewSink(ctx, &config.Config{
		SQLitePath:    filepath.Join(dir, "a.db"),
		AuditFilePath: filepath.Join(dir, "b.jsonl"),
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLSink{}, sink)
	require.NoError(t, sink.Close())
	_, statErr := os.Stat(filepath.Join(dir, "b.jsonl"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 500_000_000, time.UTC)

	for _, v := range []any{want, "2024-05-01T12:00:00.5Z", []byte("2024-05-01T12:00:00.500Z")} {
		got, err := parseTimestamp(v)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "%v", v)
	}

	_, err := parseTimestamp(42)
	assert.Error(t, err)
	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}
