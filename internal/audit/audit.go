// Package audit хранит анонимный журнал скачиваний QR-кодов.
// Запись выполняется по принципу "отправил и забыл": ошибки только логируются.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/models"
)

const (
	// DocumentType тип документа журнала
	DocumentType = "download"
	// DefaultTimeout время на одну запись в хранилище
	DefaultTimeout = 5 * time.Second
)

// ErrSinkClosed запись в закрытое хранилище
var ErrSinkClosed = errors.New("audit sink closed")

// Document запись журнала в хранилище
type Document struct {
	ID         string             `json:"id"`
	Collection string             `json:"collection"`
	UserID     string             `json:"user_id"`
	Type       string             `json:"type"`
	Data       models.AuditRecord `json:"data"`
	AppContext string             `json:"app_context,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Collection путь коллекции журнала пользователя
func Collection(appID, userID string) string {
	return fmt.Sprintf("artifacts/%s/users/%s/download_logs", appID, userID)
}

// Sink хранилище документов журнала. Метку времени назначает хранилище.
type Sink interface {
	Append(ctx context.Context, doc Document) error
	Close() error
}

// Logger асинхронно пишет записи о скачиваниях в Sink
type Logger struct {
	sink       Sink
	appID      string
	appContext string
	timeout    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewLogger создает Logger. appContext пишется в каждый документ как есть.
func NewLogger(sink Sink, appID, appContext string, timeout time.Duration, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Logger{
		sink:       sink,
		appID:      appID,
		appContext: appContext,
		timeout:    timeout,
		logger:     logger.With(zap.String("component", "audit")),
	}
}

// Record ставит запись в очередь и сразу возвращает управление.
// Без userID запись пропускается.
func (l *Logger) Record(userID string, rec models.AuditRecord) {
	if userID == "" {
		l.logger.Warn("User not authenticated, skipping download log",
			zap.String("content_type", string(rec.ContentType)))
		return
	}

	doc := Document{
		ID:         uuid.NewString(),
		Collection: Collection(l.appID, userID),
		UserID:     userID,
		Type:       DocumentType,
		Data:       rec,
		AppContext: l.appContext,
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		if err := l.sink.Append(ctx, doc); err != nil {
			l.logger.Error("Error logging download", zap.String("collection", doc.Collection), zap.Error(err))
			return
		}
		l.logger.Debug("Download logged", zap.String("id", doc.ID), zap.String("collection", doc.Collection))
	}()
}

// Flush ждет завершения всех начатых записей
func (l *Logger) Flush() {
	l.wg.Wait()
}

// Close дожидается записей и закрывает хранилище
func (l *Logger) Close() error {
	l.wg.Wait()
	return l.sink.Close()
}

func encodeData(rec models.AuditRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode audit data: %w", err)
	}
	return string(b), nil
}
