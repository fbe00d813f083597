package model

import "time"

// Signals holds the boolean trade signals for the latest bar.
type Signals struct {
	MA10Break              bool `json:"ma10Break"`
	MA14Break              bool `json:"ma14Break"`
	MACDGoldCrossBelowZero bool `json:"macdGoldCrossBelowZero"`
	KDJGoldCrossLow        bool `json:"kdjGoldCrossLow"`
}

// Fired reports the signal belonging to an indicator.
func (s Signals) Fired(ind Indicator) bool {
	switch ind {
	case IndicatorMA10:
		return s.MA10Break
	case IndicatorMA14:
		return s.MA14Break
	case IndicatorMACD:
		return s.MACDGoldCrossBelowZero
	case IndicatorKDJ:
		return s.KDJGoldCrossLow
	}
	return false
}

// MACDValue is the MACD triplet on the latest bar.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// KDJValue is the stochastic triplet on the latest bar.
type KDJValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
	J float64 `json:"j"`
}

// IndicatorValues are raw indicator readings; nil means undefined.
type IndicatorValues struct {
	MA10 *float64   `json:"ma10,omitempty"`
	MA14 *float64   `json:"ma14,omitempty"`
	MACD *MACDValue `json:"macd,omitempty"`
	KDJ  *KDJValue  `json:"kdj,omitempty"`
}

// SignalResult is the output of the signal engine.
type SignalResult struct {
	Symbol  string          `json:"symbol"`
	Price   float64         `json:"price"`
	BarDate time.Time       `json:"barDate"`
	Volume  float64         `json:"volume"`
	Bars    int             `json:"bars"`
	Signals Signals         `json:"signals"`
	Values  IndicatorValues `json:"values"`
}

// ItemStatus is the per-item outcome of an evaluation pass.
type ItemStatus string

const (
	StatusOK               ItemStatus = "ok"
	StatusInsufficientData ItemStatus = "insufficient_data"
	StatusError            ItemStatus = "error"
)

// ItemReport is the evaluation outcome for one watchlist item.
type ItemReport struct {
	Symbol     string        `json:"symbol"`
	AssetClass AssetClass    `json:"type"`
	Status     ItemStatus    `json:"status"`
	Bars       int           `json:"bars"`
	Alerted    bool          `json:"match"`
	Notified   bool          `json:"notified"`
	Triggered  []Indicator   `json:"triggered,omitempty"`
	Result     *SignalResult `json:"details,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// PassReport summarizes one evaluation pass.
type PassReport struct {
	RunID               string       `json:"runId"`
	StartedAt           time.Time    `json:"startedAt"`
	FinishedAt          time.Time    `json:"finishedAt"`
	Results             []ItemReport `json:"results"`
	NotificationsSent   int          `json:"notificationsSent"`
	NotificationsFailed int          `json:"notificationsFailed"`
}
