package calculator

import "math"

// MACD holds aligned MACD, signal and histogram series.
type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes MACD = EMA(fast) - EMA(slow) and its EMA(signal) line.
// The MACD line is defined from index slow-1, the signal line from slow+signal-2.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line := nanSeries(len(closes))
	for i := range closes {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			continue
		}
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMASeries(line, signal)

	hist := nanSeries(len(closes))
	for i := range closes {
		if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
			continue
		}
		hist[i] = line[i] - sig[i]
	}
	return MACD{Line: line, Signal: sig, Histogram: hist}
}
