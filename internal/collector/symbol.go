package collector

import "strings"

// quoteAssets are recognised pair suffixes, longest first.
var quoteAssets = []string{"USDT", "USDC", "BUSD", "USD", "EUR", "BTC", "ETH"}

// StripVenue removes a "VENUE:" prefix, e.g. BINANCE:BTCUSDT -> BTCUSDT.
func StripVenue(symbol string) string {
	if i := strings.LastIndex(symbol, ":"); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}

// NormalizeSymbol is the canonical comparison key: venue stripped,
// trimmed and upper-cased. It is idempotent.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(StripVenue(strings.TrimSpace(symbol))))
}

// SplitPair splits a crypto pair into base and quote assets. It accepts
// "BTC-USD", "BTC/USD", "BTC_USD" and concatenated forms like "BTCUSDT".
// ok is false unless the quote is a known quote asset.
func SplitPair(symbol string) (base, quote string, ok bool) {
	s := NormalizeSymbol(symbol)
	if i := strings.IndexAny(s, "-/_"); i > 0 {
		base, quote = s[:i], s[i+1:]
		for _, q := range quoteAssets {
			if quote == q {
				return base, quote, base != ""
			}
		}
		return "", "", false
	}
	for _, q := range quoteAssets {
		if !strings.HasSuffix(s, q) || len(s) <= len(q) {
			continue
		}
		base = s[:len(s)-len(q)]
		if concatenatedBase(base, q) {
			return base, q, true
		}
	}
	return "", "", false
}

// concatenatedBase guards suffix splits: WBTC and STETH are tickers, not
// W/BTC and ST/ETH. A crypto quote needs a known base; a fiat or stablecoin
// quote needs at least two letters of base.
func concatenatedBase(base, quote string) bool {
	if _, known := coinGeckoIDs[base]; known {
		return true
	}
	switch quote {
	case "BTC", "ETH":
		return false
	}
	return len(base) >= 2
}

// cryptoParts returns base and quote, defaulting the quote to USD for bare
// tickers like "BTC".
func cryptoParts(symbol string) (base, quote string) {
	if b, q, ok := SplitPair(symbol); ok {
		return b, q
	}
	return NormalizeSymbol(symbol), "USD"
}

// BinanceSymbol maps BTC-USD to BTCUSD.
func BinanceSymbol(symbol string) string {
	base, quote := cryptoParts(symbol)
	return base + quote
}

// YahooCryptoSymbol maps BTCUSDT to BTC-USD. Yahoo only lists fiat pairs for
// most coins, so stablecoin quotes collapse to USD.
func YahooCryptoSymbol(symbol string) string {
	base, quote := cryptoParts(symbol)
	switch quote {
	case "USDT", "USDC", "BUSD":
		quote = "USD"
	}
	return base + "-" + quote
}

// EquitySymbol upper-cases and strips any venue prefix.
func EquitySymbol(symbol string) string {
	return NormalizeSymbol(symbol)
}

// coinGeckoIDs covers the common coins without a search round trip.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"LTC":   "litecoin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"TRX":   "tron",
	"SHIB":  "shiba-inu",
	"BCH":   "bitcoin-cash",
	"XLM":   "stellar",
	"ATOM":  "cosmos",
	"UNI":   "uniswap",
}

// coinGeckoVsCurrency maps a quote asset to a CoinGecko vs_currency.
func coinGeckoVsCurrency(quote string) string {
	switch quote {
	case "USD", "USDT", "USDC", "BUSD":
		return "usd"
	}
	return strings.ToLower(quote)
}
