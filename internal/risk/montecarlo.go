package risk

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// Validate checks simulation parameters
func (c MonteCarloConfig) Validate() error {
	switch {
	case c.Simulations <= 0:
		return contracts.InvalidParameters("monte_carlo.simulations", "must be positive, got %d", c.Simulations)
	case c.HorizonDays <= 0:
		return contracts.InvalidParameters("monte_carlo.horizon_days", "must be positive, got %d", c.HorizonDays)
	case !(c.InitialCapital > 0):
		return contracts.InvalidParameters("monte_carlo.initial_capital", "must be positive, got %v", c.InitialCapital)
	case c.SamplePaths < 0:
		return contracts.InvalidParameters("monte_carlo.sample_paths", "must not be negative, got %d", c.SamplePaths)
	}
	return nil
}

// MonteCarloSimulator draws correlated daily returns r = μ_daily + L·z
// where Σ_daily = L·Lᵀ, and compounds the weighted portfolio return.
type MonteCarloSimulator struct {
	config MonteCarloConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator creates a simulator. Without a seed the source is
// the wall clock and results are not reproducible.
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	seed := time.Now().UnixNano()
	if config.Seed != nil {
		seed = *config.Seed
	}
	if config.SamplePaths == 0 {
		config.SamplePaths = DefaultSamplePaths
	}

	return &MonteCarloSimulator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Simulate runs the configured number of paths for weights w
func (mc *MonteCarloSimulator) Simulate(mo *Moments, w []float64) (*MonteCarloResult, error) {
	if err := mc.config.Validate(); err != nil {
		return nil, err
	}
	if len(w) != len(mo.Mu) {
		return nil, contracts.InvalidParameters("weights", "%d weights for %d assets", len(w), len(mo.Mu))
	}

	muDaily, covDaily := mo.Daily()

	var chol mat.Cholesky
	if ok := chol.Factorize(covDaily); !ok {
		return nil, contracts.NewError(contracts.KindNonPSDCovariance, "weights",
			"daily covariance is not positive definite", map[string]interface{}{"assets": len(w)})
	}
	var lt mat.TriDense
	chol.LTo(&lt)

	n := len(w)
	lower := make([][]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = make([]float64, i+1)
		for j := 0; j <= i; j++ {
			lower[i][j] = lt.At(i, j)
		}
	}

	cfg := mc.config
	keep := make(map[int]int)
	for slot, idx := range mc.rng.Perm(cfg.Simulations)[:min(cfg.SamplePaths, cfg.Simulations)] {
		keep[idx] = slot
	}
	samples := make([][]float64, len(keep))

	ends := make([]float64, cfg.Simulations)
	z := make([]float64, n)

	for s := 0; s < cfg.Simulations; s++ {
		var path []float64
		slot, sampled := keep[s]
		if sampled {
			path = make([]float64, 0, cfg.HorizonDays+1)
			path = append(path, cfg.InitialCapital)
		}

		value := cfg.InitialCapital
		for d := 0; d < cfg.HorizonDays; d++ {
			for i := range z {
				z[i] = mc.rng.NormFloat64()
			}

			rp := 0.0
			for i := 0; i < n; i++ {
				ri := muDaily[i]
				for j, l := range lower[i] {
					ri += l * z[j]
				}
				rp += w[i] * ri
			}
			value *= 1 + rp

			if sampled {
				path = append(path, value)
			}
		}

		ends[s] = value
		if sampled {
			samples[slot] = path
		}
	}

	return summarizeEnds(cfg, ends, samples)
}

func summarizeEnds(cfg MonteCarloConfig, ends []float64, samples [][]float64) (*MonteCarloResult, error) {
	k := cfg.InitialCapital

	pnl := make([]float64, len(ends))
	losses := 0
	for i, v := range ends {
		pnl[i] = v - k
		if v < k {
			losses++
		}
	}

	mean, err := stats.Mean(ends)
	if err != nil {
		return nil, fmt.Errorf("mean end value: %w", err)
	}

	sorted := make([]float64, len(ends))
	copy(sorted, ends)
	sort.Float64s(sorted)

	// ⭐ SSOT: VaR 하한 0, CVaR >= VaR
	v, cv := TailRisk(pnl, 5)

	return &MonteCarloResult{
		Simulations:       cfg.Simulations,
		HorizonDays:       cfg.HorizonDays,
		InitialCapital:    k,
		Seeded:            cfg.Seed != nil,
		P05:               Percentile(sorted, 5),
		P50:               Percentile(sorted, 50),
		P95:               Percentile(sorted, 95),
		Mean:              mean,
		ProbabilityOfLoss: float64(losses) / float64(len(ends)),
		VaR95:             v,
		CVaR95:            cv,
		VaR95Pct:          v / k * 100,
		CVaR95Pct:         cv / k * 100,
		SamplePaths:       samples,
	}, nil
}
