package risk

import "time"

// TradingDays is the annualization factor
const TradingDays = 252

// MinRows is the minimum number of aligned return rows for any analytic
const MinRows = 30

// DefaultSamplePaths is how many complete paths a simulation keeps
const DefaultSamplePaths = 20

// =============================================================================
// Returns
// =============================================================================

// ReturnsMatrix holds simple daily returns over the inner join of trading
// dates. R[t][i] is the return of IDs[i] from Dates[t] to Dates[t+1].
type ReturnsMatrix struct {
	IDs   []string
	Dates []time.Time // T+1 joined price dates
	R     [][]float64 // T rows x N columns
}

// Rows returns T
func (m *ReturnsMatrix) Rows() int { return len(m.R) }

// Cols returns N
func (m *ReturnsMatrix) Cols() int { return len(m.IDs) }

// Column returns the return series of asset i
func (m *ReturnsMatrix) Column(i int) []float64 {
	out := make([]float64, len(m.R))
	for t, row := range m.R {
		out[t] = row[i]
	}
	return out
}

// =============================================================================
// Monte Carlo
// =============================================================================

// MonteCarloConfig parameterizes a simulation.
// A nil Seed draws entropy from the wall clock and the run is not reproducible.
type MonteCarloConfig struct {
	Simulations    int     `json:"simulations"`
	HorizonDays    int     `json:"horizon_days"`
	InitialCapital float64 `json:"initial_capital"`
	Seed           *int64  `json:"seed,omitempty"`
	SamplePaths    int     `json:"sample_paths"`
}

// MonteCarloResult summarizes simulated end values
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
type MonteCarloResult struct {
	Simulations    int     `json:"simulations"`
	HorizonDays    int     `json:"horizon_days"`
	InitialCapital float64 `json:"initial_capital"`
	Seeded         bool    `json:"seeded"`

	P05  float64 `json:"p05"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	Mean float64 `json:"mean"`

	ProbabilityOfLoss float64 `json:"probability_of_loss"`

	VaR95     float64 `json:"var_95"`      // amount, loss positive
	CVaR95    float64 `json:"cvar_95"`     // amount, loss positive
	VaR95Pct  float64 `json:"var_95_pct"`  // percent of initial capital
	CVaR95Pct float64 `json:"cvar_95_pct"` // percent of initial capital

	SamplePaths [][]float64 `json:"sample_paths"` // each HorizonDays+1 long
}

// =============================================================================
// Efficient frontier
// =============================================================================

// FrontierPoint is one long-only fully invested portfolio
type FrontierPoint struct {
	Return  float64            `json:"return"` // annualized
	Std     float64            `json:"std"`    // annualized
	Sharpe  float64            `json:"sharpe"`
	Weights map[string]float64 `json:"weights"`
}

// Frontier is the swept efficient frontier with its two corner portfolios
type Frontier struct {
	MinVariance FrontierPoint   `json:"min_variance"`
	MaxSharpe   FrontierPoint   `json:"max_sharpe"`
	Points      []FrontierPoint `json:"points"`
}

// =============================================================================
// CAPM
// =============================================================================

// CAPMResult compares portfolio returns with a benchmark
type CAPMResult struct {
	Observations     int     `json:"observations"`
	Beta             float64 `json:"beta"`
	Alpha            float64 `json:"alpha"` // annualized
	AnnualReturn     float64 `json:"annual_return"`
	Volatility       float64 `json:"volatility"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	MaxDrawdown      float64 `json:"max_drawdown"` // <= 0
	BenchmarkReturn  float64 `json:"benchmark_return"`
	BenchmarkSharpe  float64 `json:"benchmark_sharpe"`
	Correlation      float64 `json:"correlation"`
	TrackingError    float64 `json:"tracking_error"`
	InformationRatio float64 `json:"information_ratio"`
}

// Summary is the annualized profile of the requested weights
type Summary struct {
	Weights      map[string]float64 `json:"weights"`
	AnnualReturn float64            `json:"annual_return"`
	Volatility   float64            `json:"volatility"`
	Sharpe       float64            `json:"sharpe"`
	Observations int                `json:"observations"`
}
