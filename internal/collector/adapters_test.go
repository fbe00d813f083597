package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/model"
)

func serve(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jsonBody(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func status(code int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		fmt.Fprint(w, body)
	}
}

func TestYahoo_Quote(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/AAPL": jsonBody(`{"chart":{"result":[{"meta":{"symbol":"AAPL","shortName":"Apple Inc.","regularMarketPrice":110,"chartPreviousClose":100}}],"error":null}}`),
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	q, err := p.FetchQuote(context.Background(), "aapl")

	require.NoError(t, err)
	assert.Equal(t, 110.0, q.Price)
	assert.InDelta(t, 10.0, q.Change, 1e-9)
	assert.InDelta(t, 10.0, q.ChangePercent, 1e-9)
	assert.Equal(t, "Apple Inc.", q.DisplayName)
	assert.Equal(t, "yahoo", q.Source)
}

func TestYahooCrypto_MapsPairSymbol(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/BTC-USD": jsonBody(`{"chart":{"result":[{"meta":{"symbol":"BTC-USD","regularMarketPrice":64000,"chartPreviousClose":63000}}],"error":null}}`),
	})
	p := NewYahooCryptoProvider(srv.URL, srv.Client(), nil)

	q, err := p.FetchQuote(context.Background(), "BINANCE:BTCUSDT")

	require.NoError(t, err)
	assert.Equal(t, 64000.0, q.Price)
	assert.Equal(t, "BTC-USD", q.DisplayName)
}

func TestYahoo_QuoteNotFound(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/NOPE": status(http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`),
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	_, err := p.FetchQuote(context.Background(), "NOPE")

	assert.ErrorIs(t, err, ErrSymbolNotFound)
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "yahoo", perr.Provider)
	assert.Equal(t, "quote", perr.Op)
}

func TestYahoo_CandlesSkipNullBars(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/AAPL": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			assert.NotEmpty(t, r.URL.Query().Get("period1"))
			jsonBody(`{"chart":{"result":[{"meta":{},"timestamp":[1735741800,1735569000,1735655400],
				"indicators":{"quote":[{"open":[10,8,null],"high":[11,9,null],"low":[9,7,null],"close":[10.5,8.5,null],"volume":[100,200,null]}]}}]}}`)(w, r)
		},
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	bars, err := p.FetchCandles(context.Background(), "AAPL", RequestWindowDays)

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 8.5, bars[0].Close)
	assert.Equal(t, 10.5, bars[1].Close)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
}

func TestYahoo_CandlesUseExchangeSessionDate(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/BHP.AX": jsonBody(`{"chart":{"result":[{"meta":{"gmtoffset":39600},"timestamp":[1737327600,1737414000],
			"indicators":{"quote":[{"open":[40,41],"high":[41,42],"low":[39,40],"close":[40.5,41.5],"volume":[1000,1200]}]}}]}}`),
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	bars, err := p.FetchCandles(context.Background(), "BHP.AX", RequestWindowDays)

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Len(t, FilterTradingDays("BHP.AX", bars), 2)
}

func TestYahoo_CandlesFailureIsEmpty(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v8/finance/chart/AAPL": status(http.StatusInternalServerError, "oops"),
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	bars, err := p.FetchCandles(context.Background(), "AAPL", 30)

	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotNil(t, bars)
	assert.Empty(t, bars)
}

func TestYahoo_Search(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v1/finance/search": jsonBody(`{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","quoteType":"EQUITY","exchange":"NMS","exchDisp":"NASDAQ"},
			{"symbol":"BTC-USD","shortname":"Bitcoin USD","quoteType":"CRYPTOCURRENCY","exchange":"CCC"}]}`),
	})
	p := NewYahooProvider(srv.URL, srv.Client(), nil)

	results, err := p.Search(context.Background(), "a")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, model.SearchResult{Symbol: "AAPL", DisplayName: "Apple Inc.", AssetClassHint: "equity", Exchange: "NASDAQ", Source: "yahoo"}, results[0])
	assert.Equal(t, "crypto", results[1].AssetClassHint)
}

func TestFinnhub_MissingKeyFailsFast(t *testing.T) {
	called := false
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/": func(http.ResponseWriter, *http.Request) { called = true },
	})
	p := NewFinnhubProvider(srv.URL, "", srv.Client(), nil)

	_, err := p.FetchQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	bars, err := p.FetchCandles(context.Background(), "AAPL", 30)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Empty(t, bars)
	assert.False(t, called)
}

func TestFinnhub_Quote(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/quote": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "key", r.Header.Get("X-Finnhub-Token"))
			if r.URL.Query().Get("symbol") == "AAPL" {
				jsonBody(`{"c":187.2,"d":1.1,"dp":0.59,"h":188,"l":185,"o":186,"pc":186.1,"t":1700000000}`)(w, r)
				return
			}
			jsonBody(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`)(w, r)
		},
	})
	p := NewFinnhubProvider(srv.URL, "key", srv.Client(), nil)

	q, err := p.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.2, q.Price)
	assert.Equal(t, 0.59, q.ChangePercent)

	_, err = p.FetchQuote(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestFinnhub_Candles(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/stock/candle": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "D", r.URL.Query().Get("resolution"))
			if r.URL.Query().Get("symbol") == "AAPL" {
				jsonBody(`{"s":"ok","t":[1735689600,1735776000],"o":[1,2],"h":[1.5,2.5],"l":[0.5,1.5],"c":[1.2,2.2],"v":[10,20]}`)(w, r)
				return
			}
			jsonBody(`{"s":"no_data"}`)(w, r)
		},
	})
	p := NewFinnhubProvider(srv.URL, "key", srv.Client(), nil)

	bars, err := p.FetchCandles(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2025-01-02", bars[1].Day())
	assert.Equal(t, 2.2, bars[1].Close)

	bars, err = p.FetchCandles(context.Background(), "NODATA", 30)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Empty(t, bars)
}

func TestFinnhub_SearchCapsAndSplitsVenue(t *testing.T) {
	body := `{"count":20,"result":[{"description":"BINANCE BTCUSDT","displaySymbol":"BTC/USDT","symbol":"BINANCE:BTCUSDT","type":"Crypto"}`
	for i := 0; i < 19; i++ {
		body += fmt.Sprintf(`,{"description":"CO %d","displaySymbol":"S%d","symbol":"S%d","type":"Common Stock"}`, i, i, i)
	}
	body += `]}`
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){"/search": jsonBody(body)})
	p := NewFinnhubProvider(srv.URL, "key", srv.Client(), nil)

	results, err := p.Search(context.Background(), "btc")

	require.NoError(t, err)
	assert.Len(t, results, MaxSearchResults)
	assert.Equal(t, "BTC/USDT", results[0].Symbol)
	assert.Equal(t, "BINANCE", results[0].Exchange)
	assert.Equal(t, "crypto", results[0].AssetClassHint)
	assert.Equal(t, "equity", results[1].AssetClassHint)
}

func TestStatusMapping(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/quote": func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("symbol") {
			case "LIMIT":
				status(http.StatusTooManyRequests, "slow down")(w, r)
			case "GONE":
				status(http.StatusNotFound, "")(w, r)
			case "JUNK":
				jsonBody(`{not json`)(w, r)
			default:
				status(http.StatusBadGateway, "")(w, r)
			}
		},
	})
	p := NewFinnhubProvider(srv.URL, "key", srv.Client(), nil)
	ctx := context.Background()

	_, err := p.FetchQuote(ctx, "LIMIT")
	assert.ErrorIs(t, err, ErrRateLimited)
	_, err = p.FetchQuote(ctx, "GONE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	_, err = p.FetchQuote(ctx, "JUNK")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	_, err = p.FetchQuote(ctx, "OTHER")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestLimiterExhaustionFailsFast(t *testing.T) {
	hits := 0
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/quote": func(w http.ResponseWriter, r *http.Request) {
			hits++
			jsonBody(`{"c":1,"t":1}`)(w, r)
		},
	})
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	p := NewFinnhubProvider(srv.URL, "key", srv.Client(), limiter)

	_, err := p.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = p.FetchQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, hits)
}

func TestBinance_QuoteAndCandles(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v3/ticker/24hr": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "BTCUSD", r.URL.Query().Get("symbol"))
			jsonBody(`{"symbol":"BTCUSD","priceChange":"-120.50000000","priceChangePercent":"-0.180","lastPrice":"67000.12000000"}`)(w, r)
		},
		"/api/v3/klines": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			jsonBody(`[
				[1735776000000,"94000.00","96000.00","93000.00","95000.00","1200.5",1735862399999,"0",100,"0","0","0"],
				[1735689600000,"93000.00","94500.00","92000.00","94000.00","1100.0",1735775999999,"0",100,"0","0","0"]]`)(w, r)
		},
	})
	p := NewBinanceProvider(srv.URL, srv.Client(), nil)

	q, err := p.FetchQuote(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.InDelta(t, 67000.12, q.Price, 1e-9)
	assert.InDelta(t, -120.5, q.Change, 1e-9)
	assert.InDelta(t, -0.18, q.ChangePercent, 1e-9)
	assert.Equal(t, "binance", q.Source)

	bars, err := p.FetchCandles(context.Background(), "BTC-USD", RequestWindowDays)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2025-01-01", bars[0].Day())
	assert.Equal(t, 95000.0, bars[1].Close)
	assert.Equal(t, 1200.5, bars[1].Volume)
}

func TestBinance_InvalidSymbol(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/api/v3/ticker/24hr": status(http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`),
		"/api/v3/klines":      status(http.StatusServiceUnavailable, `<html>down</html>`),
	})
	p := NewBinanceProvider(srv.URL, srv.Client(), nil)

	_, err := p.FetchQuote(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	bars, err := p.FetchCandles(context.Background(), "XYZ", 30)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Empty(t, bars)
}

func TestCoinGecko_QuoteAndCandles(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/simple/price": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
			jsonBody(`{"bitcoin":{"usd":60000,"usd_24h_change":20}}`)(w, r)
		},
		"/coins/bitcoin/market_chart": jsonBody(`{
			"prices":[[1735689600000,93000.5],[1735776000000,94000.25],[1735800000000,94100]],
			"total_volumes":[[1735689600000,5000],[1735776000000,6000],[1735800000000,100]]}`),
	})
	p := NewCoinGeckoProvider(srv.URL, "", srv.Client(), nil)

	q, err := p.FetchQuote(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 60000.0, q.Price)
	assert.Equal(t, 20.0, q.ChangePercent)
	assert.InDelta(t, 10000.0, q.Change, 1e-9)

	bars, err := p.FetchCandles(context.Background(), "BTC-USD", RequestWindowDays)
	require.NoError(t, err)
	require.Len(t, bars, 2, "intraday point for the same day is dropped")
	assert.Equal(t, 94000.25, bars[1].Close)
	assert.Equal(t, bars[1].Close, bars[1].High)
	assert.Equal(t, 6000.0, bars[1].Volume)
}

func TestCoinGecko_ResolvesUnknownCoinViaSearch(t *testing.T) {
	searches := 0
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/search": func(w http.ResponseWriter, r *http.Request) {
			searches++
			assert.Equal(t, "PEPE", r.URL.Query().Get("query"))
			jsonBody(`{"coins":[{"id":"pepe-fork","symbol":"PEPEF"},{"id":"pepe","symbol":"pepe"}]}`)(w, r)
		},
		"/simple/price": jsonBody(`{"pepe":{"usd":0.00001}}`),
	})
	p := NewCoinGeckoProvider(srv.URL, "", srv.Client(), nil)

	for i := 0; i < 2; i++ {
		q, err := p.FetchQuote(context.Background(), "PEPE-USD")
		require.NoError(t, err)
		assert.Equal(t, 0.00001, q.Price)
	}
	assert.Equal(t, 1, searches)
}

func TestCoinGecko_UnknownCoin(t *testing.T) {
	srv := serve(t, map[string]func(http.ResponseWriter, *http.Request){
		"/search": jsonBody(`{"coins":[]}`),
	})
	p := NewCoinGeckoProvider(srv.URL, "", srv.Client(), nil)

	_, err := p.FetchQuote(context.Background(), "XYZ-USD")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}
