package factor

import (
	"math"
	"sort"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// Direction says which end of a metric is better
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Bounded maps x onto [0,100] within [lo, hi], reversed for LowerIsBetter.
// A missing x stays missing.
func Bounded(x, lo, hi float64, dir Direction) float64 {
	if contracts.IsMissing(x) || hi <= lo {
		return contracts.Missing()
	}
	v := (x - lo) / (hi - lo)
	v = math.Max(0, math.Min(1, v))
	if dir == LowerIsBetter {
		v = 1 - v
	}
	return v * 100
}

// PercentileRank ranks target among values (which should include target)
// as rank/N*100 with average ranks for ties. Missing values are ignored.
// Ascending for HigherIsBetter so the best value reads 100.
func PercentileRank(target float64, values []float64, dir Direction) float64 {
	if contracts.IsMissing(target) {
		return contracts.Missing()
	}

	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !contracts.IsMissing(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return contracts.Missing()
	}
	if dir == LowerIsBetter {
		target = -target
		for i := range valid {
			valid[i] = -valid[i]
		}
	}
	sort.Float64s(valid)

	below, equal := 0, 0
	for _, v := range valid {
		switch {
		case v < target:
			below++
		case v == target:
			equal++
		}
	}
	if equal == 0 {
		// target outside the set still gets a rank position
		equal = 1
		valid = append(valid, target)
	}

	// average of ranks below+1 .. below+equal
	rank := float64(below) + float64(equal+1)/2
	return rank / float64(len(valid)) * 100
}

// weightedMean averages the non-missing scores with renormalized weights.
// ok is false when every score is missing.
func weightedMean(scores, weights []float64) (float64, bool) {
	num, den := 0.0, 0.0
	for i, s := range scores {
		if contracts.IsMissing(s) {
			continue
		}
		num += s * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return contracts.NeutralScore, false
	}
	return num / den, true
}
