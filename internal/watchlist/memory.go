package watchlist

import (
	"context"
	"sync"

	"SignalSentinel/internal/model"
)

// MemoryStore is a process-local Store. LoadErr and SaveErr inject failures.
type MemoryStore struct {
	mu      sync.Mutex
	items   []model.WatchlistItem
	saved   bool
	saves   int
	LoadErr error
	SaveErr error
}

// NewMemoryStore starts with items; nil means nothing saved yet.
func NewMemoryStore(items []model.WatchlistItem) *MemoryStore {
	return &MemoryStore{items: model.CloneItems(items), saved: items != nil}
}

func (s *MemoryStore) Load(_ context.Context) ([]model.WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if !s.saved {
		return nil, nil
	}
	return model.CloneItems(s.items), nil
}

func (s *MemoryStore) Save(_ context.Context, items []model.WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.items = model.CloneItems(items)
	if s.items == nil {
		s.items = []model.WatchlistItem{}
	}
	s.saved = true
	return nil
}

// Saves counts Save calls, failed ones included.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
