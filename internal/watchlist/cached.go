package watchlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"SignalSentinel/internal/model"
)

// CachedStore fronts a durable Store with an in-memory copy.
//
// Reads go memory -> durable -> DefaultItems. Writes update memory first and
// then the durable store; a durable failure is returned but the memory copy
// is kept, so the process keeps serving the latest list.
type CachedStore struct {
	durable Store
	log     logrus.FieldLogger

	mu     sync.RWMutex
	items  []model.WatchlistItem
	cached bool
}

func NewCachedStore(durable Store, log logrus.FieldLogger) *CachedStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedStore{durable: durable, log: log.WithField("component", "watchlist")}
}

// Load falls back to the defaults when the durable store cannot be read. The
// defaults come with an error wrapping ErrDegraded and are not cached, so the
// next call retries the durable store.
func (s *CachedStore) Load(ctx context.Context) ([]model.WatchlistItem, error) {
	s.mu.RLock()
	if s.cached {
		items := model.CloneItems(s.items)
		s.mu.RUnlock()
		return items, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached {
		return model.CloneItems(s.items), nil
	}

	items, err := s.durable.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("durable watchlist read failed, serving defaults")
		return DefaultItems(), fmt.Errorf("%w: %v", ErrDegraded, err)
	}
	if items == nil {
		s.log.Info("no stored watchlist, using defaults")
		items = DefaultItems()
	}
	s.items = items
	s.cached = true
	return model.CloneItems(items), nil
}

func (s *CachedStore) Save(ctx context.Context, items []model.WatchlistItem) error {
	s.mu.Lock()
	s.items = model.CloneItems(items)
	if s.items == nil {
		s.items = []model.WatchlistItem{}
	}
	s.cached = true
	s.mu.Unlock()

	if err := s.durable.Save(ctx, items); err != nil {
		s.log.WithError(err).Error("durable watchlist write failed, keeping in-memory copy")
		return err
	}
	return nil
}
