package calculator

import "math"

// KDJ holds aligned stochastic %K, %D and %J series.
type KDJ struct {
	K []float64
	D []float64
	J []float64
}

// CalculateKDJ computes the stochastic oscillator over period bars with %D as
// the signal-bar SMA of %K and %J = 3K - 2D. A flat window yields K = 50.
func CalculateKDJ(highs, lows, closes []float64, period, signal int) KDJ {
	n := len(closes)
	k := nanSeries(n)
	if period > 0 && len(highs) == n && len(lows) == n {
		for i := period - 1; i < n; i++ {
			hh, ll := math.Inf(-1), math.Inf(1)
			for j := i - period + 1; j <= i; j++ {
				if highs[j] > hh {
					hh = highs[j]
				}
				if lows[j] < ll {
					ll = lows[j]
				}
			}
			if hh == ll {
				k[i] = 50
				continue
			}
			k[i] = (closes[i] - ll) / (hh - ll) * 100
		}
	}

	d := SMASeries(k, signal)
	j := nanSeries(n)
	for i := range j {
		if math.IsNaN(k[i]) || math.IsNaN(d[i]) {
			continue
		}
		j[i] = 3*k[i] - 2*d[i]
	}
	return KDJ{K: k, D: d, J: j}
}
