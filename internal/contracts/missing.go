package contracts

import "math"

// Missing is the single marker for an absent numeric value.
// ⭐ SSOT: 결측값 규약은 여기서만 정의 (NaN)
func Missing() float64 { return math.NaN() }

// IsMissing reports whether x carries no usable value (NaN or ±Inf)
func IsMissing(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

// MissingSlice returns n missing values
func MissingSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// NullableSlice converts missing values to nil for JSON encoding
func NullableSlice(xs []float64) []*float64 {
	out := make([]*float64, len(xs))
	for i := range xs {
		if IsMissing(xs[i]) {
			continue
		}
		v := xs[i]
		out[i] = &v
	}
	return out
}
