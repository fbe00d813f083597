package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/model"
)

// DefaultBinanceBaseURL points at Binance US, which serves US-hosted callers
// that the global endpoint geo-blocks.
const DefaultBinanceBaseURL = "https://api.binance.us"

// Binance API error codes that map onto typed failures.
const (
	binanceInvalidSymbol   = -1121
	binanceTooManyRequests = -1003
	binanceTooManyOrders   = -1015
)

// BinanceProvider implements crypto quotes and daily candles with the
// go-binance spot client. Only public market-data endpoints are used.
type BinanceProvider struct {
	client  *binance.Client
	limiter *rate.Limiter
}

func NewBinanceProvider(baseURL string, httpClient *http.Client, limiter *rate.Limiter) *BinanceProvider {
	client := binance.NewClient("", "")
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	client.BaseURL = baseURL
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &BinanceProvider{client: client, limiter: limiter}
}

func (b *BinanceProvider) Name() string { return "binance" }

func (b *BinanceProvider) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if !b.limiter.Allow() {
		return nil, providerErr(b.Name(), "quote", symbol, ErrRateLimited, nil)
	}
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(BinanceSymbol(symbol)).Do(ctx)
	if err != nil {
		return nil, b.wrap("quote", symbol, err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return nil, providerErr(b.Name(), "quote", symbol, ErrSymbolNotFound, nil)
	}

	s := stats[0]
	price, err := parseDecimal(s.LastPrice)
	if err != nil || price <= 0 {
		return nil, providerErr(b.Name(), "quote", symbol, ErrProviderUnavailable, fmt.Errorf("bad last price %q", s.LastPrice))
	}
	change, _ := parseDecimal(s.PriceChange)
	pct, _ := parseDecimal(s.PriceChangePercent)
	return &model.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		DisplayName:   symbol,
		Source:        b.Name(),
	}, nil
}

func (b *BinanceProvider) FetchCandles(ctx context.Context, symbol string, lookbackDays int) ([]model.Candle, error) {
	if !b.limiter.Allow() {
		return []model.Candle{}, providerErr(b.Name(), "candles", symbol, ErrRateLimited, nil)
	}
	start := time.Now().AddDate(0, 0, -lookbackDays)
	klines, err := b.client.NewKlinesService().
		Symbol(BinanceSymbol(symbol)).
		Interval("1d").
		StartTime(start.UnixMilli()).
		Limit(lookbackDays + 1).
		Do(ctx)
	if err != nil {
		return []model.Candle{}, b.wrap("candles", symbol, err)
	}

	bars := make([]model.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := candleFromKline(k)
		if err != nil {
			return []model.Candle{}, providerErr(b.Name(), "candles", symbol, ErrProviderUnavailable, err)
		}
		bars = append(bars, c)
	}
	return model.NormalizeCandles(bars), nil
}

func candleFromKline(k *binance.Kline) (model.Candle, error) {
	var (
		c   = model.Candle{Date: time.UnixMilli(k.OpenTime).UTC()}
		err error
	)
	fields := []struct {
		dst *float64
		src string
	}{
		{&c.Open, k.Open}, {&c.High, k.High}, {&c.Low, k.Low}, {&c.Close, k.Close}, {&c.Volume, k.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = parseDecimal(f.src); err != nil {
			return model.Candle{}, fmt.Errorf("kline %d: %w", k.OpenTime, err)
		}
	}
	return c, nil
}

func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// wrap maps go-binance errors onto the collector taxonomy.
func (b *BinanceProvider) wrap(op, symbol string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case binanceInvalidSymbol:
			return providerErr(b.Name(), op, symbol, ErrSymbolNotFound, err)
		case binanceTooManyRequests, binanceTooManyOrders:
			return providerErr(b.Name(), op, symbol, ErrRateLimited, err)
		}
	}
	return providerErr(b.Name(), op, symbol, ErrProviderUnavailable, err)
}
