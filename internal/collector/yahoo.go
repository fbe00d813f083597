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

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements quotes, candles and search against Yahoo Finance's
// public chart and search endpoints.
type YahooProvider struct {
	rest      restClient
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	crypto    bool
}

// NewYahooProvider creates a Yahoo Finance provider. An empty baseURL uses the
// public endpoint.
func NewYahooProvider(baseURL string, client *http.Client, limiter *rate.Limiter) *YahooProvider {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooProvider{
		rest: newRESTClient("yahoo", baseURL, client, limiter),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

// NewYahooCryptoProvider serves crypto pairs, mapping BTCUSDT to Yahoo's BTC-USD.
func NewYahooCryptoProvider(baseURL string, client *http.Client, limiter *rate.Limiter) *YahooProvider {
	p := NewYahooProvider(baseURL, client, limiter)
	p.crypto = true
	return p
}

func (f *YahooProvider) Name() string { return "yahoo" }

func (f *YahooProvider) yahooSymbol(symbol string) string {
	if f.crypto {
		return YahooCryptoSymbol(symbol)
	}
	s := EquitySymbol(symbol)
	if mapped, ok := f.SymbolMap[s]; ok {
		return mapped
	}
	return s
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				GMTOffset          int64   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooProvider) fetchChart(ctx context.Context, op, symbol string, query url.Values) (*yahooChart, error) {
	var chart yahooChart
	path := "/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol))
	if err := f.rest.getJSON(ctx, op, symbol, path, query, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		kind := ErrProviderUnavailable
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			kind = ErrSymbolNotFound
		}
		return nil, providerErr(f.Name(), op, symbol, kind, fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, providerErr(f.Name(), op, symbol, ErrSymbolNotFound, fmt.Errorf("no data returned"))
	}
	return &chart, nil
}

// FetchQuote reads the chart meta block, which carries the live price and
// the previous close.
func (f *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	chart, err := f.fetchChart(ctx, "quote", symbol, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, providerErr(f.Name(), "quote", symbol, ErrProviderUnavailable, fmt.Errorf("missing price"))
	}

	prev := meta.ChartPreviousClose
	if prev <= 0 {
		prev = meta.PreviousClose
	}
	q := &model.Quote{
		Symbol:      symbol,
		Price:       meta.RegularMarketPrice,
		DisplayName: firstNonEmpty(meta.ShortName, meta.LongName, meta.Symbol, symbol),
		Source:      f.Name(),
	}
	if prev > 0 {
		q.Change = q.Price - prev
		q.ChangePercent = q.Change / prev * 100
	}
	return q, nil
}

// FetchCandles returns daily bars for roughly the last lookbackDays calendar days.
func (f *YahooProvider) FetchCandles(ctx context.Context, symbol string, lookbackDays int) ([]model.Candle, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	query := url.Values{
		"interval": {"1d"},
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
	}
	chart, err := f.fetchChart(ctx, "candles", symbol, query)
	if err != nil {
		return []model.Candle{}, err
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []model.Candle{}, providerErr(f.Name(), "candles", symbol, ErrSymbolNotFound, fmt.Errorf("no bars"))
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue // skip null bars (holidays, halted sessions)
		}
		bars = append(bars, model.Candle{
			Date:   sessionDate(ts, result.Meta.GMTOffset),
			Open:   deref(at(quote.Open, i), *c),
			High:   deref(at(quote.High, i), *c),
			Low:    deref(at(quote.Low, i), *c),
			Close:  *c,
			Volume: deref(at(quote.Volume, i), 0),
		})
	}
	return model.NormalizeCandles(bars), nil
}

// sessionDate labels a bar with its exchange-local trading date at midnight
// UTC. Yahoo stamps daily bars at session open, which for Asia-Pacific
// exchanges falls on the previous UTC day.
func sessionDate(ts, gmtOffset int64) time.Time {
	return time.Unix(ts+gmtOffset, 0).UTC().Truncate(24 * time.Hour)
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
	} `json:"quotes"`
}

func (f *YahooProvider) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	var resp yahooSearch
	q := url.Values{"q": {query}, "quotesCount": {strconv.Itoa(MaxSearchResults)}, "newsCount": {"0"}}
	if err := f.rest.getJSON(ctx, "search", "", "/v1/finance/search", q, &resp); err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, 0, len(resp.Quotes))
	for _, r := range resp.Quotes {
		if r.Symbol == "" {
			continue
		}
		out = append(out, model.SearchResult{
			Symbol:         r.Symbol,
			DisplayName:    firstNonEmpty(r.ShortName, r.LongName, r.Symbol),
			AssetClassHint: assetHint(r.QuoteType),
			Exchange:       firstNonEmpty(r.ExchDisp, r.Exchange),
			Source:         f.Name(),
		})
	}
	return out, nil
}

// assetHint maps provider instrument types onto an asset class hint.
func assetHint(kind string) string {
	switch strings.ToLower(kind) {
	case "cryptocurrency", "crypto":
		return string(model.Crypto)
	case "equity", "etf", "etp", "common stock", "adr", "mutualfund", "index":
		return string(model.Equity)
	case "":
		return "unknown"
	}
	return strings.ToLower(kind)
}

func at(vals []*float64, i int) *float64 {
	if i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
