package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// AssetClass routes a symbol to a provider chain.
type AssetClass string

const (
	Equity AssetClass = "equity"
	Crypto AssetClass = "crypto"
)

// ParseAssetClass accepts "equity", "stock" and "crypto" in any case.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "stock":
		return Equity, nil
	case "crypto":
		return Crypto, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

func (a *AssetClass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetClass(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Candle represents one daily OHLCV bar.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Day returns the calendar date of the bar in UTC.
func (c Candle) Day() string {
	return c.Date.UTC().Format("2006-01-02")
}

// NormalizeCandles sorts bars ascending, drops duplicate dates (first seen wins)
// and discards bars with a non-positive close or negative fields.
func NormalizeCandles(bars []Candle) []Candle {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]Candle, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]Candle, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, b := range sorted {
		if b.Close <= 0 || b.Open < 0 || b.High < 0 || b.Low < 0 || b.Volume < 0 {
			continue
		}
		day := b.Day()
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, b)
	}
	return out
}

// Quote is the latest price snapshot for a symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	DisplayName   string  `json:"displayName"`
	Source        string  `json:"source,omitempty"`
}

// Valid reports whether the quote carries a usable price.
func (q *Quote) Valid() bool {
	return q != nil && q.Price > 0
}

// SearchResult is one symbol-search candidate.
type SearchResult struct {
	Symbol         string `json:"symbol"`
	DisplayName    string `json:"displayName"`
	AssetClassHint string `json:"assetClassHint"`
	Exchange       string `json:"exchange"`
	Source         string `json:"source"`
}
