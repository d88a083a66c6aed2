package risk

import (
	"math"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// DefaultFrontierPoints is the sweep size when the caller gives none
const DefaultFrontierPoints = 20

// targetTol is how far a solved return may sit from its target
const targetTol = 1e-6

// EfficientFrontier sweeps long-only fully invested portfolios from the
// minimum-variance return up to the best single-asset return.
// Targets the solver cannot reach are dropped.
func EfficientFrontier(mo *Moments, ids []string, points int, rf float64) (*Frontier, error) {
	n := len(mo.Mu)
	if n < 2 {
		return nil, contracts.NewError(contracts.KindDegenerateUniverse, "weights",
			"efficient frontier needs at least two securities", map[string]interface{}{"securities": n})
	}
	if points < 2 {
		return nil, contracts.InvalidParameters("frontier.points", "must be at least 2, got %d", points)
	}

	ones := make([]float64, n)
	uniform := make([]float64, n)
	for i := range ones {
		ones[i] = 1
		uniform[i] = 1 / float64(n)
	}

	// 1. 최소분산 포트폴리오
	minVar, err := qpProblem{Q: mo.Cov, A: [][]float64{ones}, b: []float64{1}}.solve(uniform)
	if err != nil {
		return nil, err
	}
	minVar = cleanWeights(minVar)

	top := 0
	for i, m := range mo.Mu {
		if m > mo.Mu[top] {
			top = i
		}
	}

	f := &Frontier{MinVariance: point(mo, ids, minVar, rf)}
	f.Points = append(f.Points, f.MinVariance)

	// 2. 목표 수익률 스윕
	lo, hi := f.MinVariance.Return, mo.Mu[top]
	if hi-lo > targetTol {
		for k := 1; k < points; k++ {
			target := lo + (hi-lo)*float64(k)/float64(points-1)
			if w, ok := solveTarget(mo, ones, minVar, top, lo, hi, target); ok {
				f.Points = append(f.Points, point(mo, ids, w, rf))
			}
		}
	}

	// 3. 최대 샤프
	if w, ok := maxSharpe(mo, rf); ok {
		f.MaxSharpe = point(mo, ids, w, rf)
	} else {
		best := f.Points[0]
		for _, p := range f.Points[1:] {
			if p.Sharpe > best.Sharpe {
				best = p
			}
		}
		f.MaxSharpe = best
	}

	return f, nil
}

// solveTarget starts from the feasible blend of the min-variance weights
// and the top-return asset that already hits the target
func solveTarget(mo *Moments, ones, minVar []float64, top int, lo, hi, target float64) ([]float64, bool) {
	alpha := (target - lo) / (hi - lo)
	if alpha >= 1-targetTol {
		return topReturn(mo, ones, hi)
	}

	start := make([]float64, len(minVar))
	for i, x := range minVar {
		start[i] = (1 - alpha) * x
	}
	start[top] += alpha

	w, err := qpProblem{
		Q: mo.Cov,
		A: [][]float64{ones, mo.Mu},
		b: []float64{1, target},
	}.solve(start)
	if err != nil {
		return nil, false
	}

	w = cleanWeights(w)
	if ret, _ := mo.profile(w); math.Abs(ret-target) > targetTol*(1+math.Abs(target)) {
		return nil, false
	}
	return w, true
}

// topReturn is the least-variance mix of the assets tied at the highest
// expected return; the only feasible weights for that target
func topReturn(mo *Moments, ones []float64, hi float64) ([]float64, bool) {
	mask := make([]float64, len(mo.Mu))
	var tied []int
	for i, m := range mo.Mu {
		if m >= hi-targetTol*(1+math.Abs(hi)) {
			tied = append(tied, i)
		} else {
			mask[i] = 1
		}
	}

	w := make([]float64, len(mo.Mu))
	if len(tied) == 1 {
		w[tied[0]] = 1
		return w, true
	}

	for _, i := range tied {
		w[i] = 1 / float64(len(tied))
	}
	// untied assets are pinned to zero by the extra row
	w, err := qpProblem{Q: mo.Cov, A: [][]float64{ones, mask}, b: []float64{1, 0}}.solve(w)
	if err != nil {
		return nil, false
	}
	return cleanWeights(w), true
}

// maxSharpe solves min yᵀΣy s.t. (μ−r)ᵀy = 1, y >= 0 and returns y/Σy
func maxSharpe(mo *Moments, rf float64) ([]float64, bool) {
	excess := make([]float64, len(mo.Mu))
	best := -1
	for i, m := range mo.Mu {
		excess[i] = m - rf
		if excess[i] > 0 && (best < 0 || excess[i] > excess[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, false
	}

	start := make([]float64, len(excess))
	start[best] = 1 / excess[best]

	y, err := qpProblem{Q: mo.Cov, A: [][]float64{excess}, b: []float64{1}}.solve(start)
	if err != nil {
		return nil, false
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	if !(sum > 0) {
		return nil, false
	}
	for i := range y {
		y[i] /= sum
	}
	return cleanWeights(y), true
}

// cleanWeights clips round-off negatives and renormalizes to one
func cleanWeights(w []float64) []float64 {
	sum := 0.0
	for i, x := range w {
		if x < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}
	return w
}

func point(mo *Moments, ids []string, w []float64, rf float64) FrontierPoint {
	ret, std := mo.profile(w)
	return FrontierPoint{
		Return:  ret,
		Std:     std,
		Sharpe:  sharpe(ret, std, rf),
		Weights: weightMap(ids, w),
	}
}
