package web

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
)

// ErrRegistryClosed реестр остановлен, новые сессии не создаются
var ErrRegistryClosed = errors.New("session registry closed")

// SessionFactory создает новую сессию генератора для токена клиента
type SessionFactory func(token string) (*generator.Session, error)

// Entry сессия клиента и ее точка монтирования
type Entry struct {
	Session *generator.Session
	Preview *PreviewBuffer

	lastSeen time.Time
}

// Registry сопоставляет идентификатор клиента с его сессией.
// Сессии создаются лениво и удаляются после простоя дольше ttl.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Entry
	closed   bool

	factory SessionFactory
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	// фоновая инициализация сессий живет дольше запроса
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewRegistry создает реестр
func NewRegistry(factory SessionFactory, ttl time.Duration, logger *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		sessions: make(map[string]*Entry),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Get возвращает сессию клиента, создавая и запуская ее при необходимости.
// Новая сессия входит с токеном клиента, поэтому ее личность совпадает
// с личностью браузера.
func (r *Registry) Get(clientID, token string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if e, ok := r.sessions[clientID]; ok {
		e.lastSeen = r.now()
		return e, nil
	}

	s, err := r.factory(token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	e := &Entry{Session: s, Preview: &PreviewBuffer{}, lastSeen: r.now()}
	if err := s.Mount(e.Preview); err != nil {
		s.Close()
		return nil, fmt.Errorf("mount preview: %w", err)
	}
	s.Start(r.baseCtx)
	r.sessions[clientID] = e

	r.logger.Debug("Session created", zap.String("client_id", clientID), zap.Int("sessions", len(r.sessions)))
	return e, nil
}

// Remove закрывает и удаляет сессию клиента
func (r *Registry) Remove(clientID string) bool {
	r.mu.Lock()
	e, ok := r.sessions[clientID]
	delete(r.sessions, clientID)
	r.mu.Unlock()

	if ok {
		closeEntry(e)
	}
	return ok
}

// Len количество активных сессий
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep удаляет сессии, простаивающие дольше ttl. Возвращает число удаленных.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	deadline := r.now().Add(-r.ttl)
	var expired []*Entry
	for id, e := range r.sessions {
		if e.lastSeen.Before(deadline) {
			expired = append(expired, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		closeEntry(e)
	}
	if len(expired) > 0 {
		r.logger.Info("Idle sessions evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunJanitor периодически вызывает Sweep до отмены ctx
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close закрывает все сессии и отменяет их фоновую инициализацию
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.sessions
	r.sessions = make(map[string]*Entry)
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	for _, e := range entries {
		closeEntry(e)
	}
}

func closeEntry(e *Entry) {
	e.Session.Close()
	e.Preview.Reset()
}
