package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"SignalSentinel/internal/model"
)

// FileStore keeps the watchlist in a JSON file.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the watchlist from the JSON file. Returns nil if the file doesn't exist.
func (s *FileStore) Load(_ context.Context) ([]model.WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, s.Path, err)
	}
	items := []model.WatchlistItem{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPersistence, s.Path, err)
	}
	return items, nil
}

// Save writes the watchlist atomically via a temp file and rename.
func (s *FileStore) Save(_ context.Context, items []model.WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []model.WatchlistItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", ErrPersistence, dir, err)
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, s.Path, err)
	}
	return nil
}
