package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LinkRecord запись файла хранилища (одна JSON-строка)
type LinkRecord struct {
	UUID   string `json:"uuid"`
	Code   string `json:"code"`
	Target string `json:"target"`
}

// FileStorage хранит ссылки в файле JSON lines и держит индекс в памяти
type FileStorage struct {
	mu     sync.RWMutex
	file   *os.File
	links  map[string]string
	logger *zap.Logger
}

// NewFileStorage открывает (или создает) файл и загружает существующие записи
func NewFileStorage(path string, logger *zap.Logger) (*FileStorage, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	s := &FileStorage{
		file:   file,
		links:  make(map[string]string),
		logger: logger,
	}
	if err := s.load(); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			logger.Error("Error closing storage file", zap.Error(closeErr))
		}
		return nil, err
	}
	return s, nil
}

func (s *FileStorage) load() error {
	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("error seeking to file start: %w", err)
	}

	scanner := bufio.NewScanner(s.file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec LinkRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// битая строка (например, оборванная запись) пропускается
			s.logger.Warn("Skipping malformed storage record", zap.Int("line", line), zap.Error(err))
			continue
		}
		s.links[rec.Code] = rec.Target
	}
	return scanner.Err()
}

// Save дописывает запись в файл
func (s *FileStorage) Save(_ context.Context, code, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[code]; ok {
		return ErrCodeConflict
	}

	data, err := json.Marshal(LinkRecord{UUID: uuid.NewString(), Code: code, Target: target})
	if err != nil {
		return fmt.Errorf("error marshaling link record: %w", err)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	s.links[code] = target
	return nil
}

// Get получает целевую ссылку по коду
func (s *FileStorage) Get(_ context.Context, code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.links[code]
	if !ok {
		return "", ErrLinkNotFound
	}
	return target, nil
}

// CheckConnection проверяет, что файл еще открыт
func (s *FileStorage) CheckConnection(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return errors.New("storage file is closed")
	}
	_, err := s.file.Stat()
	return err
}

// Close закрывает файл
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
