package contracts

import (
	"math"
	"sort"
)

// PortfolioWeights maps security id to a non-negative weight.
// Weights are renormalized to sum 1 without notice.
type PortfolioWeights map[string]float64

// Normalize validates the weights and returns ids in sorted order with
// weights renormalized to sum 1.
func (w PortfolioWeights) Normalize() ([]string, []float64, error) {
	if len(w) == 0 {
		return nil, nil, InvalidParameters("weights", "at least one security is required")
	}

	ids := make([]string, 0, len(w))
	for id := range w {
		if id == "" {
			return nil, nil, InvalidParameters("weights", "empty security id")
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sum := 0.0
	for _, id := range ids {
		v := w[id]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, InvalidParameters("weights", "weight for %s is not finite", id)
		}
		if v < 0 {
			return nil, nil, InvalidParameters("weights", "weight for %s is negative", id)
		}
		sum += v
	}
	if sum <= 0 {
		return nil, nil, InvalidParameters("weights", "weights sum to zero")
	}

	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = w[id] / sum
	}
	return ids, out, nil
}
