package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// fileData is the on-disk layout: namespace -> normalized address -> entry.
type fileData map[string]map[string]domain.CacheEntry

// FileStore keeps cache entries in a single JSON file. Several namespaces
// may share one file.
type FileStore struct {
	path      string
	namespace string
	mu        sync.Mutex
}

func NewFileStore(path, namespace string) *FileStore {
	return &FileStore{path: path, namespace: namespace}
}

func (s *FileStore) ReadAll(ctx context.Context) (map[string]domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.CacheEntry, len(data[s.namespace]))
	for k, e := range data[s.namespace] {
		out[k] = e
	}
	return out, nil
}

func (s *FileStore) PutMany(ctx context.Context, entries map[string]domain.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readUnlocked()
	if err != nil {
		return err
	}

	ns := data[s.namespace]
	if ns == nil {
		ns = make(map[string]domain.CacheEntry, len(entries))
		data[s.namespace] = ns
	}
	for k, e := range entries {
		if k == "" {
			return errors.New("write cache file: empty address key")
		}
		ns[k] = e
	}

	return s.writeUnlocked(data)
}

func (s *FileStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readUnlocked()
	if err != nil {
		return 0, err
	}

	removed := 0
	for k, e := range data[s.namespace] {
		if e.CachedAt.Before(cutoff) {
			delete(data[s.namespace], k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	return removed, s.writeUnlocked(data)
}

func (s *FileStore) readUnlocked() (fileData, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return fileData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file %q: %w", s.path, err)
	}

	data := fileData{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse cache file %q: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) writeUnlocked(data fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp cache file: %w", err)
	}

	return nil
}
