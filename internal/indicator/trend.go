package indicator

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// MA is the simple moving average over n bars
func MA(x []float64, n int) []float64 {
	out := contracts.MissingSlice(len(x))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		if windowMissing(x, i, n) {
			continue
		}
		sum := 0.0
		for _, v := range x[i-n+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(n)
	}
	return out
}

// EMA is the exponential moving average with alpha = 2/(span+1),
// seeded with the first value and no bias adjustment.
// Positions before span-1 are missing.
func EMA(x []float64, span int) []float64 {
	return mask(emaRaw(x, span), x, span)
}

// emaRaw runs the EMA recursion over every position. A missing input
// leaves the state unchanged and yields a missing output at that position.
func emaRaw(x []float64, span int) []float64 {
	out := contracts.MissingSlice(len(x))
	alpha := 2.0 / (float64(span) + 1.0)

	state := math.NaN()
	for i, v := range x {
		if contracts.IsMissing(v) {
			continue
		}
		if math.IsNaN(state) {
			state = v
		} else {
			state = alpha*v + (1-alpha)*state
		}
		out[i] = state
	}
	return out
}

// MACDResult holds the three MACD columns
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD uses spans 12/26 and a 9-span signal over the full macd line.
// All three columns are missing before index 25.
func MACD(x []float64) MACDResult {
	fast, slow := emaRaw(x, 12), emaRaw(x, 26)

	line := make([]float64, len(x))
	for i := range x {
		line[i] = fast[i] - slow[i]
	}
	signal := emaRaw(line, 9)

	hist := make([]float64, len(x))
	for i := range x {
		hist[i] = line[i] - signal[i]
	}

	const lookback = 26
	return MACDResult{
		MACD:      mask(line, x, lookback),
		Signal:    mask(signal, x, lookback),
		Histogram: mask(hist, x, lookback),
	}
}

// BollingerResult holds the band columns
type BollingerResult struct {
	Upper []float64
	Mid   []float64
	Lower []float64
}

// Bollinger bands around MA(n) at k sample standard deviations
func Bollinger(x []float64, n int, k float64) BollingerResult {
	res := BollingerResult{
		Upper: contracts.MissingSlice(len(x)),
		Mid:   MA(x, n),
		Lower: contracts.MissingSlice(len(x)),
	}
	if n < 2 {
		return res
	}

	for i := n - 1; i < len(x); i++ {
		if contracts.IsMissing(res.Mid[i]) {
			continue
		}
		sd, err := stats.StandardDeviationSample(x[i-n+1 : i+1])
		if err != nil {
			continue
		}
		res.Upper[i] = res.Mid[i] + k*sd
		res.Lower[i] = res.Mid[i] - k*sd
	}
	return res
}

// windowMissing reports whether x[i-n+1..i] contains a missing value
func windowMissing(x []float64, i, n int) bool {
	for _, v := range x[i-n+1 : i+1] {
		if contracts.IsMissing(v) {
			return true
		}
	}
	return false
}

// mask blanks the first lookback-1 positions and any position whose
// trailing lookback window of the input contains a missing value
func mask(values, input []float64, lookback int) []float64 {
	out := contracts.MissingSlice(len(values))
	for i := lookback - 1; i < len(values); i++ {
		if windowMissing(input, i, lookback) {
			continue
		}
		out[i] = values[i]
	}
	return out
}
