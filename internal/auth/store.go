package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a Store when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value store for credentials material.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Location describes where key is kept, for operator-facing messages.
	Location(key string) string
}

// FileStore keeps each key as a file inside Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.Base(key))
}

// Get reads the file for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path(key), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path(key), err)
	}
	return data, nil
}

// Put replaces the file for key, creating Dir when needed. Files are
// written with 0600 permissions.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", s.Dir, err)
	}
	if err := os.WriteFile(s.path(key), value, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path(key), err)
	}
	return nil
}

// Location returns the file path for key.
func (s *FileStore) Location(key string) string {
	return s.path(key)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value for key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Location returns a pseudo location for key.
func (s *MemoryStore) Location(key string) string {
	return "memory:" + key
}
