package collector

import (
	"context"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// Per-symbol maps take precedence over the defaults; Err fails every call.
type MockProvider struct {
	ProviderName string
	Price        float64
	Quote        *model.Quote
	Candles      []model.Candle
	Results      []model.SearchResult
	Err          error

	QuotesBySymbol  map[string]*model.Quote
	CandlesBySymbol map[string][]model.Candle
	FailSymbols     map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Calls reports how many times op ("quote", "candles", "search") was invoked.
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockProvider) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

func (m *MockProvider) fail(op, symbol string) error {
	if err, ok := m.FailSymbols[symbol]; ok {
		return providerErr(m.Name(), op, symbol, err, nil)
	}
	if m.Err != nil {
		return providerErr(m.Name(), op, symbol, m.Err, nil)
	}
	return nil
}

func (m *MockProvider) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.record("quote")
	if err := m.fail("quote", symbol); err != nil {
		return nil, err
	}
	if q, ok := m.QuotesBySymbol[symbol]; ok {
		return copyQuote(q, symbol, m.Name()), nil
	}
	if m.Quote != nil {
		return copyQuote(m.Quote, symbol, m.Name()), nil
	}
	if m.Price > 0 {
		return &model.Quote{Symbol: symbol, Price: m.Price, DisplayName: symbol, Source: m.Name()}, nil
	}
	return nil, nil
}

func (m *MockProvider) FetchCandles(_ context.Context, symbol string, lookbackDays int) ([]model.Candle, error) {
	m.record("candles")
	if err := m.fail("candles", symbol); err != nil {
		return []model.Candle{}, err
	}
	if bars, ok := m.CandlesBySymbol[symbol]; ok {
		return append([]model.Candle(nil), bars...), nil
	}
	if m.Candles != nil {
		return append([]model.Candle(nil), m.Candles...), nil
	}
	if m.Price > 0 {
		return GenerateMockBars(m.Price, lookbackDays), nil
	}
	return []model.Candle{}, nil
}

func (m *MockProvider) Search(_ context.Context, query string) ([]model.SearchResult, error) {
	m.record("search")
	if err := m.fail("search", query); err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, len(m.Results))
	copy(out, m.Results)
	for i := range out {
		if out[i].Source == "" {
			out[i].Source = m.Name()
		}
	}
	return out, nil
}

func copyQuote(q *model.Quote, symbol, source string) *model.Quote {
	c := *q
	if c.Symbol == "" {
		c.Symbol = symbol
	}
	if c.Source == "" {
		c.Source = source
	}
	return &c
}

// GenerateMockBars builds count weekday bars ending yesterday with a gentle
// upward drift around basePrice.
func GenerateMockBars(basePrice float64, count int) []model.Candle {
	if count <= 0 {
		return []model.Candle{}
	}
	bars := make([]model.Candle, count)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for i := count - 1; i >= 0; {
		day = day.AddDate(0, 0, -1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Candle{
			Date:   day,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
		i--
	}
	return bars
}
