package risk

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// CAPM compares aligned daily portfolio returns p with benchmark returns b.
// rf is annual.
func CAPM(p, b []float64, rf float64) (*CAPMResult, error) {
	if len(p) != len(b) {
		return nil, contracts.InvalidParameters("benchmark_id", "%d portfolio rows vs %d benchmark rows", len(p), len(b))
	}
	if len(p) < MinRows {
		return nil, contracts.InsufficientHistory("history_window_days", MinRows, len(p))
	}

	varB, err := stats.Covariance(b, b)
	if err != nil {
		return nil, fmt.Errorf("benchmark variance: %w", err)
	}
	if !(varB > 0) {
		return nil, contracts.NewError(contracts.KindDegenerateBenchmark, "benchmark_id",
			"benchmark returns have zero variance", map[string]interface{}{"observations": len(b)})
	}
	covPB, err := stats.Covariance(p, b)
	if err != nil {
		return nil, fmt.Errorf("portfolio/benchmark covariance: %w", err)
	}
	beta := covPB / varB

	annP, volP, err := annualize(p)
	if err != nil {
		return nil, err
	}
	annB, volB, err := annualize(b)
	if err != nil {
		return nil, err
	}

	res := &CAPMResult{
		Observations:    len(p),
		Beta:            beta,
		Alpha:           (annP - rf) - beta*(annB-rf),
		AnnualReturn:    annP,
		Volatility:      volP,
		Sharpe:          sharpe(annP, volP, rf),
		Sortino:         sortino(p, annP, rf),
		MaxDrawdown:     maxDrawdown(p),
		BenchmarkReturn: annB,
		BenchmarkSharpe: sharpe(annB, volB, rf),
	}

	if volP > 0 {
		corr, err := stats.Correlation(p, b)
		if err != nil {
			return nil, fmt.Errorf("correlation: %w", err)
		}
		res.Correlation = finiteOrZero(corr)
	}

	active := make([]float64, len(p))
	for i := range p {
		active[i] = p[i] - b[i]
	}
	te, err := stats.StandardDeviationSample(active)
	if err != nil {
		return nil, fmt.Errorf("tracking error: %w", err)
	}
	res.TrackingError = te * math.Sqrt(TradingDays)
	if res.TrackingError > 0 {
		res.InformationRatio = (annP - annB) / res.TrackingError
	}

	return res, nil
}

// annualize returns mean·252 and sample std·√252
func annualize(r []float64) (float64, float64, error) {
	mean, err := stats.Mean(r)
	if err != nil {
		return 0, 0, fmt.Errorf("mean return: %w", err)
	}
	sd, err := stats.StandardDeviationSample(r)
	if err != nil {
		return 0, 0, fmt.Errorf("return volatility: %w", err)
	}
	return mean * TradingDays, sd * math.Sqrt(TradingDays), nil
}

// sortino uses the root mean square of the negative returns only
func sortino(r []float64, annual, rf float64) float64 {
	var sumSquaredNegative float64
	var countNegative int
	for _, x := range r {
		if x < 0 {
			sumSquaredNegative += x * x
			countNegative++
		}
	}

	if countNegative == 0 {
		return 0
	}

	downsideVol := math.Sqrt(sumSquaredNegative/float64(countNegative)) * math.Sqrt(TradingDays)
	if downsideVol == 0 {
		return 0
	}
	return (annual - rf) / downsideVol
}

// maxDrawdown is the deepest peak-to-trough fall of the compounded path, <= 0
func maxDrawdown(r []float64) float64 {
	cumValue := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, x := range r {
		cumValue *= 1.0 + x
		if cumValue > peak {
			peak = cumValue
		}
		dd := (cumValue - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

func finiteOrZero(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
