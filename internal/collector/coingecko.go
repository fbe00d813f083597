package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/model"
)

const DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider is the fiat-priced crypto fallback. Its payloads are keyed
// by coin id, so responses are read with gjson paths rather than structs.
// Daily candles carry only a close; open, high and low repeat it.
type CoinGeckoProvider struct {
	rest restClient

	mu  sync.Mutex
	ids map[string]string // base asset -> coin id, learned via /search
}

func NewCoinGeckoProvider(baseURL, apiKey string, client *http.Client, limiter *rate.Limiter) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	rest := newRESTClient("coingecko", baseURL, client, limiter)
	if apiKey != "" {
		rest.header.Set("x-cg-demo-api-key", apiKey)
	}
	return &CoinGeckoProvider{rest: rest, ids: make(map[string]string)}
}

func (c *CoinGeckoProvider) Name() string { return "coingecko" }

// coinID resolves a base asset to a CoinGecko id from the built-in map, a
// previous lookup, or the search API.
func (c *CoinGeckoProvider) coinID(ctx context.Context, op, symbol, base string) (string, error) {
	if id, ok := coinGeckoIDs[base]; ok {
		return id, nil
	}
	c.mu.Lock()
	id, ok := c.ids[base]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	body, err := c.rest.get(ctx, op, symbol, "/search", url.Values{"query": {base}})
	if err != nil {
		return "", err
	}
	gjson.GetBytes(body, "coins").ForEach(func(_, coin gjson.Result) bool {
		if strings.EqualFold(coin.Get("symbol").String(), base) {
			id = coin.Get("id").String()
			return false
		}
		return true
	})
	if id == "" {
		return "", providerErr(c.Name(), op, symbol, ErrSymbolNotFound, fmt.Errorf("no coin id for %s", base))
	}

	c.mu.Lock()
	c.ids[base] = id
	c.mu.Unlock()
	return id, nil
}

func (c *CoinGeckoProvider) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	base, quote := cryptoParts(symbol)
	id, err := c.coinID(ctx, "quote", symbol, base)
	if err != nil {
		return nil, err
	}
	vs := coinGeckoVsCurrency(quote)

	query := url.Values{"ids": {id}, "vs_currencies": {vs}, "include_24hr_change": {"true"}}
	body, err := c.rest.get(ctx, "quote", symbol, "/simple/price", query)
	if err != nil {
		return nil, err
	}
	coin := gjson.GetBytes(body, gjson.Escape(id))
	price := coin.Get(vs)
	if !price.Exists() || price.Float() <= 0 {
		return nil, providerErr(c.Name(), "quote", symbol, ErrSymbolNotFound, fmt.Errorf("no %s price for %s", vs, id))
	}

	q := &model.Quote{
		Symbol:      symbol,
		Price:       price.Float(),
		DisplayName: symbol,
		Source:      c.Name(),
	}
	// Only the 24h percent change is reported; derive the absolute change.
	if pct := coin.Get(vs + "_24h_change"); pct.Exists() {
		q.ChangePercent = pct.Float()
		if denom := 100 + q.ChangePercent; denom != 0 {
			q.Change = q.Price * q.ChangePercent / denom
		}
	}
	return q, nil
}

func (c *CoinGeckoProvider) FetchCandles(ctx context.Context, symbol string, lookbackDays int) ([]model.Candle, error) {
	base, quote := cryptoParts(symbol)
	id, err := c.coinID(ctx, "candles", symbol, base)
	if err != nil {
		return []model.Candle{}, err
	}
	query := url.Values{
		"vs_currency": {coinGeckoVsCurrency(quote)},
		"days":        {strconv.Itoa(lookbackDays)},
		"interval":    {"daily"},
	}
	body, err := c.rest.get(ctx, "candles", symbol, "/coins/"+url.PathEscape(id)+"/market_chart", query)
	if err != nil {
		return []model.Candle{}, err
	}

	parsed := gjson.ParseBytes(body)
	prices := parsed.Get("prices").Array()
	if len(prices) == 0 {
		return []model.Candle{}, providerErr(c.Name(), "candles", symbol, ErrSymbolNotFound, fmt.Errorf("no prices"))
	}
	volumes := make(map[int64]float64)
	for _, v := range parsed.Get("total_volumes").Array() {
		volumes[v.Get("0").Int()] = v.Get("1").Float()
	}

	bars := make([]model.Candle, 0, len(prices))
	for _, p := range prices {
		ts, px := p.Get("0").Int(), p.Get("1").Float()
		bars = append(bars, model.Candle{
			Date:   time.UnixMilli(ts).UTC(),
			Open:   px,
			High:   px,
			Low:    px,
			Close:  px,
			Volume: volumes[ts],
		})
	}
	return model.NormalizeCandles(bars), nil
}
