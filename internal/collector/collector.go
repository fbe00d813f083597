package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// Chains holds the ordered provider lists per operation and asset class.
// Order is priority: the first provider that succeeds wins.
type Chains struct {
	EquityQuote   []QuoteProvider
	CryptoQuote   []QuoteProvider
	EquityCandles []CandleProvider
	CryptoCandles []CandleProvider
	Search        []SearchProvider
}

// Options configures the default provider set.
type Options struct {
	Timeout       time.Duration
	Proxy         string
	RatePerMinute int

	YahooBaseURL     string
	FinnhubBaseURL   string
	FinnhubAPIKey    string
	BinanceBaseURL   string
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
}

// DefaultChains wires the production providers:
//
//	equity quote/candles: yahoo -> finnhub
//	crypto quote/candles: binance -> coingecko -> yahoo
//	search:               finnhub -> yahoo
func DefaultChains(opts Options) Chains {
	client := NewHTTPClient(opts.Proxy, opts.Timeout)
	yahoo := NewYahooProvider(opts.YahooBaseURL, client, NewLimiter(opts.RatePerMinute))
	finnhub := NewFinnhubProvider(opts.FinnhubBaseURL, opts.FinnhubAPIKey, client, NewLimiter(opts.RatePerMinute))
	binance := NewBinanceProvider(opts.BinanceBaseURL, client, NewLimiter(opts.RatePerMinute))
	gecko := NewCoinGeckoProvider(opts.CoinGeckoBaseURL, opts.CoinGeckoAPIKey, client, NewLimiter(opts.RatePerMinute))
	yahooCrypto := NewYahooCryptoProvider(opts.YahooBaseURL, client, yahoo.rest.limiter)

	return Chains{
		EquityQuote:   []QuoteProvider{yahoo, finnhub},
		CryptoQuote:   []QuoteProvider{binance, gecko, yahooCrypto},
		EquityCandles: []CandleProvider{yahoo, finnhub},
		CryptoCandles: []CandleProvider{binance, gecko, yahooCrypto},
		Search:        []SearchProvider{finnhub, yahoo},
	}
}

// Collector is the unified data provider. It never returns provider errors:
// exhaustion yields a nil quote or an empty slice, and every attempt is
// logged and counted.
type Collector struct {
	chains  Chains
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	// FilterCalendar drops equity bars dated on exchange holidays.
	FilterCalendar bool
}

// NewCollector creates a new Collector.
func NewCollector(chains Chains, log logrus.FieldLogger, m *metrics.Metrics) *Collector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collector{
		chains:         chains,
		log:            log.WithField("component", "collector"),
		metrics:        m,
		FilterCalendar: true,
	}
}

func (c *Collector) Chains() Chains { return c.chains }

// GetQuote returns the first valid quote along the asset class chain, or nil.
func (c *Collector) GetQuote(ctx context.Context, symbol string, class model.AssetClass) *model.Quote {
	chain := c.chains.EquityQuote
	if class == model.Crypto {
		chain = c.chains.CryptoQuote
	}
	q, source, err := firstSuccess(ctx, chain,
		func(ctx context.Context, p QuoteProvider) (*model.Quote, error) {
			return p.FetchQuote(ctx, symbol)
		},
		func(q *model.Quote) bool { return q.Valid() },
		c.observe("quote", symbol),
	)
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "asset_class": class}).WithError(err).Warn("quote unavailable from every provider")
		return nil
	}
	if q.Source == "" {
		q.Source = source
	}
	return q
}

// GetCandles returns up to MaxBars daily bars, ascending, or an empty slice.
func (c *Collector) GetCandles(ctx context.Context, symbol string, class model.AssetClass) []model.Candle {
	chain := c.chains.EquityCandles
	if class == model.Crypto {
		chain = c.chains.CryptoCandles
	}
	bars, source, err := firstSuccess(ctx, chain,
		func(ctx context.Context, p CandleProvider) ([]model.Candle, error) {
			return p.FetchCandles(ctx, symbol, RequestWindowDays)
		},
		func(b []model.Candle) bool { return len(b) > 0 },
		c.observe("candles", symbol),
	)
	if err != nil {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "asset_class": class}).WithError(err).Warn("candles unavailable from every provider")
		return []model.Candle{}
	}

	bars = model.NormalizeCandles(bars)
	if class == model.Equity && c.FilterCalendar {
		bars = FilterTradingDays(symbol, bars)
	}
	if len(bars) > MaxBars {
		bars = bars[len(bars)-MaxBars:]
	}
	c.log.WithFields(logrus.Fields{"symbol": symbol, "provider": source, "bars": len(bars)}).Debug("candles fetched")
	if bars == nil {
		return []model.Candle{}
	}
	return bars
}

// Search queries every search provider in priority order and merges the
// results. A result whose normalized symbol was already collected is dropped,
// so the higher-priority source wins.
func (c *Collector) Search(ctx context.Context, query string) []model.SearchResult {
	query = strings.TrimSpace(query)
	out := []model.SearchResult{}
	if query == "" {
		return out
	}

	observe := c.observe("search", query)
	seen := make(map[string]struct{})
	for _, p := range c.chains.Search {
		if ctx.Err() != nil {
			break
		}
		results, err := p.Search(ctx, query)
		if err == nil && len(results) == 0 {
			err = fmt.Errorf("%s: %w", p.Name(), errEmptyResult)
		}
		observe(p.Name(), err)
		if err != nil {
			continue
		}
		if len(results) > MaxSearchResults {
			results = results[:MaxSearchResults]
		}
		for _, r := range results {
			key := NormalizeSymbol(r.Symbol)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if r.Source == "" {
				r.Source = p.Name()
			}
			out = append(out, r)
		}
	}
	return out
}

func (c *Collector) observe(op, symbol string) attemptFunc {
	return func(provider string, err error) {
		outcome := Outcome(err)
		c.metrics.ProviderRequest(provider, op, outcome)
		entry := c.log.WithFields(logrus.Fields{"provider": provider, "op": op, "symbol": symbol, "outcome": outcome})
		if err != nil {
			entry.WithError(err).Warn("provider attempt failed")
			return
		}
		entry.Debug("provider attempt ok")
	}
}
