package engine

import (
	"fmt"
	"math"
	"strings"
)

// portfolioID names a weighted basket for cache keys, e.g. "2330=0.6,2454=0.4"
func portfolioID(ids []string, w []float64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%.6g", id, w[i])
	}
	return strings.Join(parts, ",")
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
