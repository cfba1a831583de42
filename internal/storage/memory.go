package storage

import (
	"context"
	"sync"
)

// MemoryStorage хранит ссылки в памяти процесса
type MemoryStorage struct {
	mu    sync.RWMutex
	links map[string]string
}

// NewMemoryStorage создает пустое хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{links: make(map[string]string)}
}

// Save сохраняет ссылку
func (s *MemoryStorage) Save(_ context.Context, code, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[code]; ok {
		return ErrCodeConflict
	}
	s.links[code] = target
	return nil
}

// Get получает целевую ссылку по коду
func (s *MemoryStorage) Get(_ context.Context, code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.links[code]
	if !ok {
		return "", ErrLinkNotFound
	}
	return target, nil
}

// CheckConnection всегда успешна
func (s *MemoryStorage) CheckConnection(context.Context) error {
	return nil
}

// Close ничего не делает
func (s *MemoryStorage) Close() error {
	return nil
}
