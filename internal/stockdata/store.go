package stockdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spacesedan/tickerflow/internal/models"
)

// ErrCacheMiss is returned by Store.Load when no record has been saved.
var ErrCacheMiss = errors.New("price cache record not found")

// Store holds the single durable price series record.
type Store interface {
	Load(ctx context.Context) (*models.CacheEntry, error)
	Save(ctx context.Context, entry models.CacheEntry) error
	Clear(ctx context.Context) error
}

// FileStore keeps the record as a JSON document on local disk. Writes go to a
// temporary file that is renamed over the record, so readers never see a
// partial write.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*models.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore] read %s: %w", s.path, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("[FileStore] decode %s: %w", s.path, err)
	}
	return &entry, nil
}

func (s *FileStore) Save(_ context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("[FileStore] encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("[FileStore] create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore] write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore] close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[FileStore] replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[FileStore] remove %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore keeps the record in process. It does not survive restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	entry *models.CacheEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entry == nil {
		return nil, ErrCacheMiss
	}
	return cloneEntry(*s.entry), nil
}

func (s *MemoryStore) Save(_ context.Context, entry models.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = nil
	return nil
}

func cloneEntry(entry models.CacheEntry) *models.CacheEntry {
	return &models.CacheEntry{
		CapturedAt: entry.CapturedAt,
		Data:       append([]models.PriceBar(nil), entry.Data...),
	}
}
