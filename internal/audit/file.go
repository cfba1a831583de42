package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileSink пишет документы в файл построчно в формате JSON (append-only)
type FileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	now    func() time.Time
	logger *zap.Logger
}

// NewFileSink открывает файл журнала на дозапись
func NewFileSink(path string, logger *zap.Logger) (*FileSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening audit file: %w", err)
	}
	return &FileSink{path: path, file: file, now: time.Now, logger: logger}, nil
}

// Append дописывает документ в конец файла
func (f *FileSink) Append(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return ErrSinkClosed
	}
	doc.Timestamp = f.now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling audit document: %w", err)
	}
	if _, err := f.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("error writing audit document: %w", err)
	}
	return nil
}

// Close закрывает файл
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
