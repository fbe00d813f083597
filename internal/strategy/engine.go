package strategy

import (
	"errors"
	"math"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// Indicator parameters.
const (
	MA10Period = 10
	MA14Period = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	KDJPeriod  = 9
	KDJSignal  = 3
	KDJLowZone = 30.0
	MinBars    = MACDSlow + MACDSignal // MACD signal line needs a previous bar
)

// ErrInsufficientHistory marks a series too short for signal computation.
var ErrInsufficientHistory = errors.New("insufficient history")

// Sufficient reports whether a series of n bars can be evaluated.
func Sufficient(n int) bool {
	return n >= MinBars
}

// Evaluate computes indicators and trade signals for the last bar of candles.
// Candles must be ascending by date. Short or empty series yield all-false signals.
func Evaluate(symbol string, candles []model.Candle) *model.SignalResult {
	res := &model.SignalResult{Symbol: symbol, Bars: len(candles)}
	if len(candles) == 0 {
		return res
	}
	last := candles[len(candles)-1]
	res.Price = last.Close
	res.BarDate = last.Date
	res.Volume = last.Volume

	closes := calculator.Closes(candles)
	ma10 := calculator.SMASeries(closes, MA10Period)
	ma14 := calculator.SMASeries(closes, MA14Period)
	macd := calculator.CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal)
	kdj := calculator.CalculateKDJ(calculator.Highs(candles), calculator.Lows(candles), closes, KDJPeriod, KDJSignal)

	res.Values = values(ma10, ma14, macd, kdj)

	if !Sufficient(len(candles)) {
		return res
	}

	i := len(candles) - 1
	res.Signals = model.Signals{
		MA10Break:              crossUp(closes, ma10, i),
		MA14Break:              crossUp(closes, ma14, i),
		MACDGoldCrossBelowZero: crossUp(macd.Line, macd.Signal, i) && macd.Line[i] < 0 && macd.Signal[i] < 0,
		KDJGoldCrossLow:        crossUp(kdj.K, kdj.D, i) && kdj.K[i] < KDJLowZone && kdj.D[i] < KDJLowZone,
	}
	return res
}

// crossUp reports fast[i] > slow[i] with fast[i-1] <= slow[i-1].
// Any undefined operand means no cross.
func crossUp(fast, slow []float64, i int) bool {
	if i < 1 || i >= len(fast) || i >= len(slow) {
		return false
	}
	for _, v := range []float64{fast[i], slow[i], fast[i-1], slow[i-1]} {
		if math.IsNaN(v) {
			return false
		}
	}
	return fast[i] > slow[i] && fast[i-1] <= slow[i-1]
}

func values(ma10, ma14 []float64, macd calculator.MACD, kdj calculator.KDJ) model.IndicatorValues {
	var v model.IndicatorValues
	if x := calculator.Last(ma10); !math.IsNaN(x) {
		v.MA10 = &x
	}
	if x := calculator.Last(ma14); !math.IsNaN(x) {
		v.MA14 = &x
	}
	if line, sig := calculator.Last(macd.Line), calculator.Last(macd.Signal); !math.IsNaN(line) && !math.IsNaN(sig) {
		v.MACD = &model.MACDValue{MACD: line, Signal: sig, Histogram: line - sig}
	}
	if k, d := calculator.Last(kdj.K), calculator.Last(kdj.D); !math.IsNaN(k) && !math.IsNaN(d) {
		v.KDJ = &model.KDJValue{K: k, D: d, J: 3*k - 2*d}
	}
	return v
}
