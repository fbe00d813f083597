package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

func newTestCollector(chains Chains) *Collector {
	c := NewCollector(chains, logger.Discard(), metrics.New())
	c.FilterCalendar = false
	return c
}

func TestGetQuote_EquityFallback(t *testing.T) {
	yahoo := &MockProvider{ProviderName: "yahoo", Err: ErrProviderUnavailable}
	finnhub := &MockProvider{ProviderName: "finnhub", Quote: &model.Quote{Price: 187.2, Change: 1.1, ChangePercent: 0.59}}
	c := newTestCollector(Chains{EquityQuote: []QuoteProvider{yahoo, finnhub}})

	q := c.GetQuote(context.Background(), "AAPL", model.Equity)

	require.NotNil(t, q)
	assert.Equal(t, 187.2, q.Price)
	assert.Equal(t, "finnhub", q.Source)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 1, yahoo.Calls("quote"))
	assert.Equal(t, 1, finnhub.Calls("quote"))
}

func TestGetQuote_RoutesByAssetClass(t *testing.T) {
	equity := &MockProvider{ProviderName: "equity", Price: 1}
	crypto := &MockProvider{ProviderName: "crypto", Price: 2}
	c := newTestCollector(Chains{
		EquityQuote: []QuoteProvider{equity},
		CryptoQuote: []QuoteProvider{crypto},
	})

	q := c.GetQuote(context.Background(), "BTC-USD", model.Crypto)

	require.NotNil(t, q)
	assert.Equal(t, "crypto", q.Source)
	assert.Zero(t, equity.Calls("quote"))
}

func TestGetQuote_ExhaustionReturnsNil(t *testing.T) {
	c := newTestCollector(Chains{CryptoQuote: []QuoteProvider{
		&MockProvider{ProviderName: "binance", Err: ErrSymbolNotFound},
		&MockProvider{ProviderName: "coingecko", Err: ErrProviderUnavailable},
	}})
	assert.Nil(t, c.GetQuote(context.Background(), "XYZ", model.Crypto))
}

func TestGetCandles_EmptyPrimaryFallsThrough(t *testing.T) {
	binance := &MockProvider{ProviderName: "binance", Candles: []model.Candle{}}
	gecko := &MockProvider{ProviderName: "coingecko", Price: 60000}
	c := newTestCollector(Chains{CryptoCandles: []CandleProvider{binance, gecko}})

	bars := c.GetCandles(context.Background(), "BTC-USD", model.Crypto)

	assert.NotEmpty(t, bars)
	assert.LessOrEqual(t, len(bars), MaxBars)
	assert.Equal(t, 1, binance.Calls("candles"))
	assert.Equal(t, 1, gecko.Calls("candles"))
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Date.After(bars[i-1].Date))
	}
}

func TestGetCandles_ExhaustionReturnsEmpty(t *testing.T) {
	c := newTestCollector(Chains{CryptoCandles: []CandleProvider{
		&MockProvider{ProviderName: "binance", Err: ErrProviderUnavailable},
		&MockProvider{ProviderName: "coingecko", Err: ErrRateLimited},
	}})

	bars := c.GetCandles(context.Background(), "XYZ", model.Crypto)

	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestGetCandles_NormalizesAndCaps(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	var raw []model.Candle
	for i := 0; i < MaxBars+20; i++ {
		raw = append(raw, model.Candle{Date: day.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: float64(i + 1), Volume: 1})
	}
	// Out of order duplicate and a bad bar.
	raw = append([]model.Candle{raw[5], {Date: day.AddDate(0, 0, -1), Close: 0}}, raw...)

	c := newTestCollector(Chains{CryptoCandles: []CandleProvider{&MockProvider{Candles: raw}}})
	bars := c.GetCandles(context.Background(), "ETH-USD", model.Crypto)

	require.Len(t, bars, MaxBars)
	assert.Equal(t, float64(MaxBars+20), bars[len(bars)-1].Close)
}

func TestGetCandles_EquityCalendarFilter(t *testing.T) {
	bar := func(d time.Time) model.Candle { return model.Candle{Date: d, Open: 1, High: 1, Low: 1, Close: 1} }
	bars := []model.Candle{
		bar(time.Date(2024, 12, 20, 14, 30, 0, 0, time.UTC)),
		bar(time.Date(2024, 12, 23, 14, 30, 0, 0, time.UTC)),
		bar(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)), // Christmas
		bar(time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC)), // Saturday
	}
	c := NewCollector(Chains{EquityCandles: []CandleProvider{&MockProvider{Candles: bars}}}, logger.Discard(), nil)

	got := c.GetCandles(context.Background(), "AAPL", model.Equity)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-12-23", got[1].Day())
}

func TestSearch_DedupKeepsHigherPriority(t *testing.T) {
	finnhub := &MockProvider{ProviderName: "finnhub", Results: []model.SearchResult{
		{Symbol: "AAPL", DisplayName: "APPLE INC", AssetClassHint: "equity"},
		{Symbol: "BINANCE:BTCUSDT", DisplayName: "Binance BTCUSDT", AssetClassHint: "crypto"},
	}}
	yahoo := &MockProvider{ProviderName: "yahoo", Results: []model.SearchResult{
		{Symbol: "aapl", DisplayName: "Apple Inc."},
		{Symbol: "BTCUSDT", DisplayName: "Bitcoin Tether"},
		{Symbol: "APLE", DisplayName: "Apple Hospitality REIT"},
	}}
	c := newTestCollector(Chains{Search: []SearchProvider{finnhub, yahoo}})

	results := c.Search(context.Background(), "apple")

	require.Len(t, results, 3)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "finnhub", results[0].Source)
	assert.Equal(t, "finnhub", results[1].Source)
	assert.Equal(t, "APLE", results[2].Symbol)
	assert.Equal(t, "yahoo", results[2].Source)
}

func TestSearch_FailingProviderSkipped(t *testing.T) {
	finnhub := &MockProvider{ProviderName: "finnhub", Err: ErrProviderUnavailable}
	yahoo := &MockProvider{ProviderName: "yahoo", Results: []model.SearchResult{{Symbol: "MSFT"}}}
	c := newTestCollector(Chains{Search: []SearchProvider{finnhub, yahoo}})

	results := c.Search(context.Background(), "micro")

	require.Len(t, results, 1)
	assert.Equal(t, "yahoo", results[0].Source)
}

func TestSearch_CapsPerProvider(t *testing.T) {
	var many []model.SearchResult
	for i := 0; i < 40; i++ {
		many = append(many, model.SearchResult{Symbol: string(rune('A'+i%26)) + string(rune('A'+i/26))})
	}
	c := newTestCollector(Chains{Search: []SearchProvider{&MockProvider{Results: many}}})
	assert.Len(t, c.Search(context.Background(), "x"), MaxSearchResults)
}

func TestSearch_EmptyQuery(t *testing.T) {
	p := &MockProvider{Results: []model.SearchResult{{Symbol: "AAPL"}}}
	c := newTestCollector(Chains{Search: []SearchProvider{p}})

	results := c.Search(context.Background(), "   ")

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, p.Calls("search"))
}

func TestDefaultChainsOrder(t *testing.T) {
	chains := DefaultChains(Options{})
	names := func(ps []QuoteProvider) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name())
		}
		return out
	}
	assert.Equal(t, []string{"yahoo", "finnhub"}, names(chains.EquityQuote))
	assert.Equal(t, []string{"binance", "coingecko", "yahoo"}, names(chains.CryptoQuote))
	require.Len(t, chains.CryptoCandles, 3)
	assert.Equal(t, "yahoo", chains.CryptoCandles[2].Name())
	require.Len(t, chains.Search, 2)
	assert.Equal(t, "finnhub", chains.Search[0].Name())
	assert.Equal(t, "yahoo", chains.Search[1].Name())
}
