package collector

import (
	"context"

	"SignalSentinel/internal/model"
)

// Provider is anything that can sit in a fallback chain.
type Provider interface {
	Name() string
}

// QuoteProvider fetches the latest price snapshot.
type QuoteProvider interface {
	Provider
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// CandleProvider fetches daily bars covering roughly the last lookbackDays
// calendar days. On failure it returns an empty slice with the error.
type CandleProvider interface {
	Provider
	FetchCandles(ctx context.Context, symbol string, lookbackDays int) ([]model.Candle, error)
}

// SearchProvider resolves a free-text query to symbol candidates.
type SearchProvider interface {
	Provider
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Lookback window for daily candles.
const (
	LookbackDays      = 60
	RequestWindowDays = 2 * LookbackDays
	// MaxBars caps the series handed to the signal engine; bars beyond the
	// lookback warm up the slow EMAs.
	MaxBars = LookbackDays + 34
	// MaxSearchResults caps results taken from each search provider.
	MaxSearchResults = 15
)
