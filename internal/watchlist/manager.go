package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

// Manager serializes read-modify-write cycles on the watchlist.
type Manager struct {
	mu    sync.Mutex
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// NormalizeKey is the primary-key form of a symbol.
func NormalizeKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// List returns a snapshot of the watchlist. A degraded defaults snapshot is
// returned without error: it is fine to read, and the write paths below
// refuse to persist it.
func (m *Manager) List(ctx context.Context) ([]model.WatchlistItem, error) {
	items, err := m.store.Load(ctx)
	if err != nil && !(errors.Is(err, ErrDegraded) && items != nil) {
		return nil, err
	}
	if items == nil {
		items = []model.WatchlistItem{}
	}
	return items, nil
}

// snapshot loads the list for a read-modify-write cycle. Unlike List it
// fails on a degraded snapshot so the defaults never overwrite stored data.
func (m *Manager) snapshot(ctx context.Context) ([]model.WatchlistItem, error) {
	items, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.WatchlistItem{}
	}
	return items, nil
}

// Add appends a symbol. A symbol already present is left untouched and
// added is false.
func (m *Manager) Add(ctx context.Context, symbol string, class model.AssetClass, indicators model.IndicatorConfig) (added bool, err error) {
	key := NormalizeKey(symbol)
	if key == "" {
		return false, fmt.Errorf("symbol is required")
	}
	if class != model.Equity && class != model.Crypto {
		return false, fmt.Errorf("unknown asset class %q", class)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.snapshot(ctx)
	if err != nil {
		return false, err
	}
	if indexOf(items, key) >= 0 {
		return false, nil
	}
	items = append(items, model.WatchlistItem{Symbol: key, AssetClass: class, Indicators: indicators})
	if err := m.store.Save(ctx, items); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes a symbol. Removing an absent symbol returns ErrNotFound.
func (m *Manager) Remove(ctx context.Context, symbol string) error {
	key := NormalizeKey(symbol)

	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.snapshot(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	items = append(items[:i], items[i+1:]...)
	return m.store.Save(ctx, items)
}

// UpdateIndicators replaces the enabled-indicator set of one symbol.
func (m *Manager) UpdateIndicators(ctx context.Context, symbol string, indicators model.IndicatorConfig) error {
	key := NormalizeKey(symbol)

	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.snapshot(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, key)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	items[i].Indicators = indicators
	return m.store.Save(ctx, items)
}

// ApplyQuotes writes fresh quotes back as LastQuote/LastUpdated. Only the
// cache fields of symbols with a valid quote change; configuration and
// items added or removed since the snapshot are respected.
func (m *Manager) ApplyQuotes(ctx context.Context, quotes map[string]*model.Quote, at time.Time) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items, err := m.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range items {
		q, ok := quotes[NormalizeKey(items[i].Symbol)]
		if !ok || !q.Valid() {
			continue
		}
		qc := *q
		ts := at
		items[i].LastQuote = &qc
		items[i].LastUpdated = &ts
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, m.store.Save(ctx, items)
}

func indexOf(items []model.WatchlistItem, key string) int {
	for i, it := range items {
		if NormalizeKey(it.Symbol) == key {
			return i
		}
	}
	return -1
}
