package model

import "time"

// Indicator names an alert condition a watchlist item can enable.
type Indicator string

const (
	IndicatorMA10 Indicator = "MA10"
	IndicatorMA14 Indicator = "MA14"
	IndicatorMACD Indicator = "MACD"
	IndicatorKDJ  Indicator = "KDJ"
)

// AllIndicators lists indicators in reporting order.
var AllIndicators = []Indicator{IndicatorMA10, IndicatorMA14, IndicatorMACD, IndicatorKDJ}

// IndicatorConfig holds the per-item enabled flags.
type IndicatorConfig struct {
	MA10 bool `json:"ma10"`
	MA14 bool `json:"ma14"`
	MACD bool `json:"macd"`
	KDJ  bool `json:"kdj"`
}

// Enabled returns the enabled indicators in reporting order.
func (c IndicatorConfig) Enabled() []Indicator {
	var out []Indicator
	if c.MA10 {
		out = append(out, IndicatorMA10)
	}
	if c.MA14 {
		out = append(out, IndicatorMA14)
	}
	if c.MACD {
		out = append(out, IndicatorMACD)
	}
	if c.KDJ {
		out = append(out, IndicatorKDJ)
	}
	return out
}

// WatchlistItem is one monitored symbol. Symbol is the primary key.
type WatchlistItem struct {
	Symbol      string          `json:"symbol"`
	AssetClass  AssetClass      `json:"type"`
	Indicators  IndicatorConfig `json:"indicators"`
	LastQuote   *Quote          `json:"lastQuote,omitempty"`
	LastUpdated *time.Time      `json:"lastUpdated,omitempty"`
}

// CloneItems deep-copies a watchlist so callers can't mutate shared cache fields.
func CloneItems(items []WatchlistItem) []WatchlistItem {
	if items == nil {
		return nil
	}
	out := make([]WatchlistItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.LastQuote != nil {
			q := *it.LastQuote
			out[i].LastQuote = &q
		}
		if it.LastUpdated != nil {
			t := *it.LastUpdated
			out[i].LastUpdated = &t
		}
	}
	return out
}
