package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"SignalSentinel/internal/model"
)

const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider implements equity quotes, candles and search via finnhub.io.
// Without an API key every call fails fast with ErrProviderUnavailable.
type FinnhubProvider struct {
	rest   restClient
	apiKey string
}

func NewFinnhubProvider(baseURL, apiKey string, client *http.Client, limiter *rate.Limiter) *FinnhubProvider {
	if baseURL == "" {
		baseURL = DefaultFinnhubBaseURL
	}
	rest := newRESTClient("finnhub", baseURL, client, limiter)
	if apiKey != "" {
		rest.header.Set("X-Finnhub-Token", apiKey)
	}
	return &FinnhubProvider{rest: rest, apiKey: apiKey}
}

func (f *FinnhubProvider) Name() string { return "finnhub" }

func (f *FinnhubProvider) checkKey(op, symbol string) error {
	if f.apiKey == "" {
		return providerErr(f.Name(), op, symbol, ErrProviderUnavailable, fmt.Errorf("api key not configured"))
	}
	return nil
}

// finnhubQuote: c current, d change, dp percent change, pc previous close, t timestamp.
type finnhubQuote struct {
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	DP float64 `json:"dp"`
	H  float64 `json:"h"`
	L  float64 `json:"l"`
	PC float64 `json:"pc"`
	T  int64   `json:"t"`
}

func (f *FinnhubProvider) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	if err := f.checkKey("quote", symbol); err != nil {
		return nil, err
	}
	var q finnhubQuote
	if err := f.rest.getJSON(ctx, "quote", symbol, "/quote", url.Values{"symbol": {EquitySymbol(symbol)}}, &q); err != nil {
		return nil, err
	}
	// Unknown symbols come back as an all-zero quote.
	if q.C <= 0 {
		return nil, providerErr(f.Name(), "quote", symbol, ErrSymbolNotFound, nil)
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         q.C,
		Change:        q.D,
		ChangePercent: q.DP,
		DisplayName:   symbol,
		Source:        f.Name(),
	}, nil
}

type finnhubCandles struct {
	S string    `json:"s"`
	C []float64 `json:"c"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	O []float64 `json:"o"`
	V []float64 `json:"v"`
	T []int64   `json:"t"`
}

func (f *FinnhubProvider) FetchCandles(ctx context.Context, symbol string, lookbackDays int) ([]model.Candle, error) {
	if err := f.checkKey("candles", symbol); err != nil {
		return []model.Candle{}, err
	}
	to := time.Now()
	from := to.AddDate(0, 0, -lookbackDays)
	query := url.Values{
		"symbol":     {EquitySymbol(symbol)},
		"resolution": {"D"},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}
	var resp finnhubCandles
	if err := f.rest.getJSON(ctx, "candles", symbol, "/stock/candle", query, &resp); err != nil {
		return []model.Candle{}, err
	}
	if resp.S != "ok" {
		return []model.Candle{}, providerErr(f.Name(), "candles", symbol, ErrSymbolNotFound, fmt.Errorf("status %q", resp.S))
	}
	n := len(resp.T)
	if len(resp.C) != n || len(resp.O) != n || len(resp.H) != n || len(resp.L) != n {
		return []model.Candle{}, providerErr(f.Name(), "candles", symbol, ErrProviderUnavailable, fmt.Errorf("ragged arrays"))
	}

	bars := make([]model.Candle, 0, n)
	for i, ts := range resp.T {
		var vol float64
		if i < len(resp.V) {
			vol = resp.V[i]
		}
		bars = append(bars, model.Candle{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   resp.O[i],
			High:   resp.H[i],
			Low:    resp.L[i],
			Close:  resp.C[i],
			Volume: vol,
		})
	}
	return model.NormalizeCandles(bars), nil
}

type finnhubSearch struct {
	Count  int `json:"count"`
	Result []struct {
		Description   string `json:"description"`
		DisplaySymbol string `json:"displaySymbol"`
		Symbol        string `json:"symbol"`
		Type          string `json:"type"`
	} `json:"result"`
}

// Search returns at most MaxSearchResults matches. Crypto hits look like
// BINANCE:BTCUSDT; the venue becomes the exchange.
func (f *FinnhubProvider) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if err := f.checkKey("search", ""); err != nil {
		return nil, err
	}
	var resp finnhubSearch
	if err := f.rest.getJSON(ctx, "search", "", "/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, 0, MaxSearchResults)
	for _, r := range resp.Result {
		if len(out) == MaxSearchResults {
			break
		}
		sym := firstNonEmpty(r.DisplaySymbol, r.Symbol)
		if sym == "" {
			continue
		}
		exchange := ""
		if i := strings.Index(r.Symbol, ":"); i > 0 {
			exchange = r.Symbol[:i]
		}
		out = append(out, model.SearchResult{
			Symbol:         sym,
			DisplayName:    r.Description,
			AssetClassHint: assetHint(r.Type),
			Exchange:       exchange,
			Source:         f.Name(),
		})
	}
	return out, nil
}
