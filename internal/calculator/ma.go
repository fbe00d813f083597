package calculator

import (
	"errors"
	"math"

	"SignalSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the trailing SMA aligned to values.
// Entries without a full window (or touching a NaN) are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		ma, err := CalculateSMA(values[i-period+1:i+1], period)
		if err != nil {
			continue
		}
		out[i] = ma
	}
	return out
}

// EMASeries returns the exponential moving average aligned to values.
// Leading NaNs are skipped; the EMA is seeded with the SMA of the first
// period defined values and smoothed with k = 2/(period+1) afterwards.
func EMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	seedIdx := start + period - 1
	if seedIdx >= len(values) {
		return out
	}
	seed, err := CalculateSMA(values[start:seedIdx+1], period)
	if err != nil || math.IsNaN(seed) {
		return out
	}
	out[seedIdx] = seed
	k := 2.0 / float64(period+1)
	for i := seedIdx + 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// Closes extracts closing prices.
func Closes(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Highs extracts high prices.
func Highs(bars []model.Candle) []float64 {
	highs := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
	}
	return highs
}

// Lows extracts low prices.
func Lows(bars []model.Candle) []float64 {
	lows := make([]float64, len(bars))
	for i, b := range bars {
		lows[i] = b.Low
	}
	return lows
}

// Last returns the final element of a series, NaN if empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
