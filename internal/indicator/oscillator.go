package indicator

import (
	"math"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// Replacement values for zero-range windows
const (
	flatRSV       = 50.0
	flatWilliamsR = -50.0
	kdSeed        = 50.0
)

// RSI uses simple n-bar means of gains and losses (not Wilder smoothing).
// Lookback is n+1 bars. A window with no losses reads 100.
func RSI(x []float64, n int) []float64 {
	out := contracts.MissingSlice(len(x))
	if n <= 0 {
		return out
	}

	for i := n; i < len(x); i++ {
		if windowMissing(x, i, n+1) {
			continue
		}
		gain, loss := 0.0, 0.0
		for j := i - n + 1; j <= i; j++ {
			d := x[j] - x[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain, avgLoss := gain/float64(n), loss/float64(n)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+avgGain/avgLoss)
	}
	return out
}

// TrueRange with TR[0] = high - low
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		prev := close[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(high[i]-prev), math.Abs(low[i]-prev)))
	}
	return out
}

// ATR is the simple n-bar mean of the true range
func ATR(high, low, close []float64, n int) []float64 {
	return MA(TrueRange(high, low, close), n)
}

// KDResult holds the stochastic K and D lines
type KDResult struct {
	K []float64
	D []float64
}

// KD is the stochastic oscillator over n bars. K and D start at 50 and
// are smoothed as prev*(m-1)/m + cur/m. A flat window reads RSV 50.
// A missing RSV leaves K and D unchanged and is reported missing.
func KD(high, low, close []float64, n, kSmooth, dSmooth int) KDResult {
	res := KDResult{K: contracts.MissingSlice(len(close)), D: contracts.MissingSlice(len(close))}
	if n <= 0 || kSmooth <= 0 || dSmooth <= 0 {
		return res
	}

	k, d := kdSeed, kdSeed
	kw, dw := 1/float64(kSmooth), 1/float64(dSmooth)

	for i := n - 1; i < len(close); i++ {
		hh, ll, ok := extremes(high, low, i, n)
		if !ok || contracts.IsMissing(close[i]) {
			continue
		}
		rsv := flatRSV
		if hh != ll {
			rsv = (close[i] - ll) / (hh - ll) * 100
		}
		k = (1-kw)*k + kw*rsv
		d = (1-dw)*d + dw*k
		res.K[i], res.D[i] = k, d
	}
	return res
}

// WilliamsR over n bars in [-100, 0]; a flat window reads -50
func WilliamsR(high, low, close []float64, n int) []float64 {
	out := contracts.MissingSlice(len(close))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(close); i++ {
		hh, ll, ok := extremes(high, low, i, n)
		if !ok || contracts.IsMissing(close[i]) {
			continue
		}
		if hh == ll {
			out[i] = flatWilliamsR
			continue
		}
		out[i] = (hh - close[i]) / (hh - ll) * -100
	}
	return out
}

// extremes returns the highest high and lowest low of the window ending at i
func extremes(high, low []float64, i, n int) (float64, float64, bool) {
	if windowMissing(high, i, n) || windowMissing(low, i, n) {
		return 0, 0, false
	}
	hh, ll := high[i], low[i]
	for j := i - n + 1; j < i; j++ {
		hh = math.Max(hh, high[j])
		ll = math.Min(ll, low[j])
	}
	return hh, ll, true
}
