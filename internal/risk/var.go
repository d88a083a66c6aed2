package risk

import (
	"math"
	"sort"
)

// Percentile interpolates linearly on a sorted slice, p in [0,100]
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// TailRisk returns VaR and CVaR of a P&L sample at the given percentile
// (5 for 95%). Both are losses expressed as positive numbers; VaR is
// floored at 0 and CVaR never reads below VaR.
func TailRisk(pnl []float64, p float64) (float64, float64) {
	if len(pnl) == 0 {
		return 0, 0
	}

	sorted := make([]float64, len(pnl))
	copy(sorted, pnl)
	sort.Float64s(sorted)

	v := math.Max(0, -Percentile(sorted, p))

	sum, n := 0.0, 0
	for _, x := range sorted {
		if x > -v {
			break
		}
		sum += x
		n++
	}

	cvar := v
	if n > 0 {
		cvar = math.Max(v, -sum/float64(n))
	}
	return v, cvar
}
