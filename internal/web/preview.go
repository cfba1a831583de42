package web

import (
	"sync"

	"github.com/toolboxtech/qr-utility/internal/generator"
)

// PreviewBuffer точка монтирования сессии: хранит последний отрисованный
// предпросмотр, который отдается браузеру по запросу.
type PreviewBuffer struct {
	mu      sync.RWMutex
	preview generator.Preview
	ok      bool
	version uint64
}

var _ generator.Mount = (*PreviewBuffer)(nil)

// Show сохраняет предпросмотр
func (b *PreviewBuffer) Show(p generator.Preview) {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.preview = generator.Preview{ContentType: p.ContentType, Data: data}
	b.ok = true
	b.version++
}

// Latest возвращает последний предпросмотр и его номер
func (b *PreviewBuffer) Latest() (generator.Preview, uint64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.preview, b.version, b.ok
}

// Reset забывает предпросмотр после размонтирования
func (b *PreviewBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preview = generator.Preview{}
	b.ok = false
}
