package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileKeyValue keeps one file per key inside a directory. Writes go through a
// temp file and a rename so a reader never sees a half-written value.
type FileKeyValue struct {
	dir string
	mu  sync.Mutex
}

// NewFileKeyValue creates a store rooted at dir. The directory is created on first write.
func NewFileKeyValue(dir string) *FileKeyValue {
	return &FileKeyValue{dir: dir}
}

func (s *FileKeyValue) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileKeyValue) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileKeyValue) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (s *FileKeyValue) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryKeyValue is a map-backed KeyValue, used for session-only storage and tests
type MemoryKeyValue struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{values: make(map[string]string)}
}

func (s *MemoryKeyValue) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryKeyValue) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryKeyValue) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
