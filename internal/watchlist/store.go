package watchlist

import (
	"context"
	"errors"
	"fmt"

	"SignalSentinel/internal/model"
)

var (
	// ErrPersistence wraps every durable read or write failure.
	ErrPersistence = errors.New("watchlist persistence failed")
	ErrNotFound    = errors.New("symbol not in watchlist")

	// ErrDegraded accompanies a defaults snapshot served because the durable
	// store could not be read. Such a snapshot is for reading only and must
	// never be saved over the durable store.
	ErrDegraded = fmt.Errorf("%w: durable store unreadable, serving defaults", ErrPersistence)
)

// Store persists the whole watchlist as one document.
// Load returns (nil, nil) when nothing has ever been saved, which is
// distinct from a saved empty list.
type Store interface {
	Load(ctx context.Context) ([]model.WatchlistItem, error)
	Save(ctx context.Context, items []model.WatchlistItem) error
}

// DefaultItems seeds a fresh installation.
func DefaultItems() []model.WatchlistItem {
	all := model.IndicatorConfig{MA10: true, MACD: true, KDJ: true}
	return []model.WatchlistItem{
		{Symbol: "AAPL", AssetClass: model.Equity, Indicators: all},
		{Symbol: "BTC-USD", AssetClass: model.Crypto, Indicators: all},
	}
}
