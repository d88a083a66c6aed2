package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// BuildReturnsMatrix inner-joins adjusted closes on the dates where every
// series has a usable bar, then takes simple returns between consecutive
// joined dates. Columns follow ids; an id may repeat.
func BuildReturnsMatrix(ids []string, panel map[string]contracts.SecuritySeries) (*ReturnsMatrix, error) {
	if len(ids) == 0 {
		return nil, contracts.InvalidParameters("weights", "at least one security required")
	}

	closes := make([]map[int64]float64, len(ids))
	for i, id := range ids {
		series, ok := panel[id]
		if !ok {
			return nil, contracts.NotFound("security_id", id)
		}
		byDate := make(map[int64]float64, series.Len())
		for _, b := range series.All() {
			if b.Missing || b.AdjustedClose <= 0 {
				continue
			}
			byDate[b.TradeDate.Unix()] = b.AdjustedClose
		}
		closes[i] = byDate
	}

	// 첫 종목 날짜 순서를 기준으로 교집합
	var dates []time.Time
	for _, b := range panel[ids[0]].All() {
		key := b.TradeDate.Unix()
		joined := true
		for _, byDate := range closes {
			if _, ok := byDate[key]; !ok {
				joined = false
				break
			}
		}
		if joined {
			dates = append(dates, b.TradeDate)
		}
	}

	rows := len(dates) - 1
	if rows < MinRows {
		return nil, contracts.InsufficientHistory("history_window_days", MinRows, max(rows, 0))
	}

	r := make([][]float64, rows)
	for t := 0; t < rows; t++ {
		prev, cur := dates[t].Unix(), dates[t+1].Unix()
		row := make([]float64, len(ids))
		for i, byDate := range closes {
			row[i] = byDate[cur]/byDate[prev] - 1
		}
		r[t] = row
	}

	out := &ReturnsMatrix{IDs: append([]string(nil), ids...), Dates: dates, R: r}
	return out, nil
}

// PortfolioReturns aggregates the leading len(w) columns of each row with w
func (m *ReturnsMatrix) PortfolioReturns(w []float64) []float64 {
	out := make([]float64, len(m.R))
	for t, row := range m.R {
		sum := 0.0
		for i, wi := range w {
			sum += wi * row[i]
		}
		out[t] = sum
	}
	return out
}

// Moments holds annualized expected returns and covariance
type Moments struct {
	Mu  []float64
	Cov *mat.SymDense
}

// EstimateMoments computes μ = mean·252 and Σ = sample cov·252
func EstimateMoments(m *ReturnsMatrix) (*Moments, error) {
	if m.Rows() < 2 {
		return nil, contracts.InsufficientHistory("history_window_days", MinRows, m.Rows())
	}

	n := m.Cols()
	cols := make([][]float64, n)
	mu := make([]float64, n)
	for i := 0; i < n; i++ {
		cols[i] = m.Column(i)
		mean, err := stats.Mean(cols[i])
		if err != nil {
			return nil, fmt.Errorf("mean of %s: %w", m.IDs[i], err)
		}
		mu[i] = mean * TradingDays
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c, err := stats.Covariance(cols[i], cols[j])
			if err != nil {
				return nil, fmt.Errorf("covariance %s/%s: %w", m.IDs[i], m.IDs[j], err)
			}
			cov.SetSym(i, j, c*TradingDays)
		}
	}

	return &Moments{Mu: mu, Cov: cov}, nil
}

// Daily returns μ and Σ on a per-day basis
func (mo *Moments) Daily() ([]float64, *mat.SymDense) {
	mu := make([]float64, len(mo.Mu))
	for i, v := range mo.Mu {
		mu[i] = v / TradingDays
	}
	var cov mat.SymDense
	cov.ScaleSym(1.0/TradingDays, mo.Cov)
	return mu, &cov
}

// Summarize profiles weights against the moments
func (mo *Moments) Summarize(ids []string, w []float64, rf float64, rows int) *Summary {
	ret, std := mo.profile(w)
	return &Summary{
		Weights:      weightMap(ids, w),
		AnnualReturn: ret,
		Volatility:   std,
		Sharpe:       sharpe(ret, std, rf),
		Observations: rows,
	}
}

// profile returns annualized return and standard deviation of w
func (mo *Moments) profile(w []float64) (float64, float64) {
	ret := 0.0
	for i, x := range w {
		ret += x * mo.Mu[i]
	}
	v := mat.NewVecDense(len(w), append([]float64(nil), w...))
	variance := mat.Inner(v, mo.Cov, v)
	return ret, math.Sqrt(math.Max(variance, 0))
}

func sharpe(ret, std, rf float64) float64 {
	if std == 0 {
		return 0
	}
	return (ret - rf) / std
}

func weightMap(ids []string, w []float64) map[string]float64 {
	out := make(map[string]float64, len(ids))
	for i, id := range ids {
		out[id] += w[i]
	}
	return out
}
