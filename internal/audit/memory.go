package audit

import (
	"context"
	"sync"
	"time"
)

// MemorySink хранит документы в памяти процесса
type MemorySink struct {
	mu     sync.RWMutex
	docs   []Document
	now    func() time.Time
	closed bool
}

// NewMemorySink создает пустое хранилище
func NewMemorySink() *MemorySink {
	return &MemorySink{now: time.Now}
}

// Append сохраняет документ
func (m *MemorySink) Append(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSinkClosed
	}
	doc.Timestamp = m.now().UTC()
	m.docs = append(m.docs, doc)
	return nil
}

// Len количество документов
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Close запрещает дальнейшую запись
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
