package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/factor"
	"github.com/JUDRAGONII/AI----sub000/internal/risk"
	"github.com/JUDRAGONII/AI----sub000/internal/s0_data"
)

var asOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

// =============================================================================
// Fixtures
// =============================================================================

// countingStore records how often the engine touched the store
type countingStore struct {
	contracts.Store
	mu    sync.Mutex
	calls int
}

func (s *countingStore) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) LoadPrices(ctx context.Context, id string, start, end time.Time, adjusted bool) (contracts.SecuritySeries, error) {
	s.hit()
	return s.Store.LoadPrices(ctx, id, start, end, adjusted)
}

func (s *countingStore) LoadFundamentals(ctx context.Context, id string, m contracts.Metric, at time.Time, periods int) ([]contracts.FundamentalPoint, error) {
	s.hit()
	return s.Store.LoadFundamentals(ctx, id, m, at, periods)
}

func (s *countingStore) LoadPanel(ctx context.Context, ids []string, start, end time.Time, adjusted bool) (map[string]contracts.SecuritySeries, error) {
	s.hit()
	return s.Store.LoadPanel(ctx, ids, start, end, adjusted)
}

func (s *countingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// mapCache is an in-process contracts.Cache with JSON round trips
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

var _ contracts.Cache = (*mapCache)(nil)

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) Observe(event string, _ map[string]interface{}) {
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
}

// walk generates weekday bars ending at asOf driven by a shared market
// factor plus idiosyncratic noise
func walk(rng *rand.Rand, id string, days int, beta, idio float64, market []float64) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, 0, days)
	d := asOf
	var dates []time.Time
	for len(dates) < days {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, -1)
	}

	price := 100.0
	for i := len(dates) - 1; i >= 0; i-- {
		k := len(dates) - 1 - i
		r := beta*market[k] + idio*rng.NormFloat64()
		open := price
		price *= 1 + r
		hi, lo := math.Max(open, price)*1.005, math.Min(open, price)*0.995
		bars = append(bars, contracts.PriceBar{
			SecurityID: id, TradeDate: dates[i],
			Open: open, High: hi, Low: lo, Close: price, AdjustedClose: price,
			Volume: 1e6 * (1 + 0.2*rng.Float64()),
		})
	}
	return bars
}

func quarterly(id string, metric contracts.Metric, n int, value func(q int) float64) []contracts.FundamentalPoint {
	out := make([]contracts.FundamentalPoint, 0, n)
	for q := 0; q < n; q++ {
		year, quarter := 2022+q/4, q%4+1
		out = append(out, contracts.FundamentalPoint{
			SecurityID: id,
			ReportDate: time.Date(year, time.Month(quarter*3), 28, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0),
			Metric:     metric,
			Value:      value(q),
			Period:     fmt.Sprintf("%dQ%d", year, quarter),
		})
	}
	return out
}

func newStore(t *testing.T) *countingStore {
	t.Helper()
	const days = 320
	rng := rand.New(rand.NewSource(11))
	market := make([]float64, days)
	for i := range market {
		market[i] = 0.0004 + 0.01*rng.NormFloat64()
	}

	ms := s0_data.NewMemoryStore()
	require.NoError(t, ms.AddSeries("BENCH", walk(rng, "BENCH", days, 1, 0, market)))
	require.NoError(t, ms.AddSeries("AAA", walk(rng, "AAA", days, 1.2, 0.008, market)))
	require.NoError(t, ms.AddSeries("BBB", walk(rng, "BBB", days, 0.8, 0.012, market)))
	require.NoError(t, ms.AddSeries("CCC", walk(rng, "CCC", days, 1.0, 0.015, market)))

	require.NoError(t, ms.AddFundamentals(quarterly("AAA", contracts.MetricEPS, 12, func(q int) float64 { return 1 + 0.05*float64(q) })...))
	require.NoError(t, ms.AddFundamentals(quarterly("AAA", contracts.MetricRevenue, 12, func(q int) float64 { return 1e9 * (1 + 0.03*float64(q)) })...))
	require.NoError(t, ms.AddFundamentals(quarterly("AAA", contracts.MetricNetIncome, 4, func(int) float64 { return 2e8 })...))
	require.NoError(t, ms.AddFundamentals(quarterly("AAA", contracts.MetricShareholdersEquity, 1, func(int) float64 { return 5e9 })...))
	require.NoError(t, ms.AddFundamentals(quarterly("AAA", contracts.MetricSharesOutstanding, 1, func(int) float64 { return 5e8 })...))

	return &countingStore{Store: ms}
}

func newEngine(t *testing.T) (*Engine, *countingStore) {
	store := newStore(t)
	return New(store, Options{Universe: "TW", RiskFreeRate: 0.01, HistoryWindowDays: 500}), store
}

func requireKind(t *testing.T, err error, kind contracts.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := contracts.KindOf(err)
	require.True(t, ok, "not a structured error: %v", err)
	assert.Equal(t, kind, got, "error: %v", err)
}

// =============================================================================
// Indicators
// =============================================================================

func TestComputeIndicators(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	panel, err := e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "AAA", AsOf: asOf, LookbackDays: 365})
	require.NoError(t, err)

	assert.Equal(t, "AAA", panel.SecurityID)
	assert.Len(t, panel.Columns, 18)
	for _, col := range panel.Columns {
		assert.Len(t, col.Values, len(panel.Dates), col.Name)
	}
	assert.True(t, panel.Dates[len(panel.Dates)-1].Equal(asOf))

	t.Run("subset", func(t *testing.T) {
		panel, err := e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "AAA", AsOf: asOf, LookbackDays: 365, Indicators: []string{"rsi", "kd"}})
		require.NoError(t, err)
		names := make([]string, 0, len(panel.Columns))
		for _, c := range panel.Columns {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"rsi_14", "k", "d"}, names)
	})

	t.Run("validation precedes store access", func(t *testing.T) {
		before := store.Calls()
		_, err := e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "AAA", AsOf: asOf, LookbackDays: 365, Indicators: []string{"ichimoku"}})
		requireKind(t, err, contracts.KindInvalidParameters)
		_, err = e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "AAA", AsOf: asOf, LookbackDays: -1})
		requireKind(t, err, contracts.KindInvalidParameters)
		assert.Equal(t, before, store.Calls())
	})

	t.Run("unknown security", func(t *testing.T) {
		_, err := e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "ZZZ", AsOf: asOf, LookbackDays: 30})
		requireKind(t, err, contracts.KindNotFound)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := e.ComputeIndicators(ctx, IndicatorRequest{SecurityID: "AAA", AsOf: asOf.AddDate(-5, 0, 0), LookbackDays: 30})
		requireKind(t, err, contracts.KindInsufficientHistory)
	})
}

func TestComputeIndicatorsCached(t *testing.T) {
	e, store := newEngine(t)
	cache := newMapCache()
	obs := &recordingObserver{}
	e.WithCache(cache).WithObserver(obs)
	ctx := context.Background()
	req := IndicatorRequest{SecurityID: "BBB", AsOf: asOf, LookbackDays: 200}

	first, err := e.ComputeIndicators(ctx, req)
	require.NoError(t, err)
	calls := store.Calls()

	second, err := e.ComputeIndicators(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, calls, store.Calls(), "second call must be served from cache")
	assert.Equal(t, 1, cache.sets)

	opts := cmp.Options{cmpopts.EquateNaNs(), cmpopts.EquateApproxTime(0)}
	if diff := cmp.Diff(first, second, opts); diff != "" {
		t.Errorf("cached panel differs (-computed +cached):\n%s", diff)
	}
	assert.Contains(t, obs.events, "indicators.done")
	assert.Contains(t, obs.events, "cache.hit")
}

// =============================================================================
// Factors
// =============================================================================

func TestComputeFactors(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	score, err := e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH"})
	require.NoError(t, err)

	assert.Equal(t, contracts.ModeBounded, score.Mode)
	assert.Equal(t, "TW", score.Universe)
	for _, s := range score.SubScores() {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 100.0)
	}
	assert.InDelta(t, contracts.CompositeTotal(score.SubScores()), score.Total, 1e-12)
	assert.False(t, score.Momentum.Missing)
	assert.False(t, score.Growth.Missing)
	assert.Contains(t, score.Details, factor.MetricRelativeReturn)

	t.Run("idempotent", func(t *testing.T) {
		again, err := e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH"})
		require.NoError(t, err)
		assert.Equal(t, score, again)
	})

	t.Run("cross sectional", func(t *testing.T) {
		cs, err := e.ComputeFactors(ctx, FactorRequest{
			SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH",
			Mode: contracts.ModeCrossSectional, PeerIDs: []string{"CCC", "BBB"},
		})
		require.NoError(t, err)
		assert.Equal(t, contracts.ModeCrossSectional, cs.Mode)
		assert.GreaterOrEqual(t, cs.Total, 0.0)
		assert.LessOrEqual(t, cs.Total, 100.0)
	})

	t.Run("validation precedes store access", func(t *testing.T) {
		before := store.Calls()
		_, err := e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf})
		requireKind(t, err, contracts.KindInvalidParameters)
		_, err = e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH", Mode: contracts.ModeCrossSectional})
		requireKind(t, err, contracts.KindInvalidParameters)
		_, err = e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH", Universe: "JP"})
		requireKind(t, err, contracts.KindInvalidParameters)
		assert.Equal(t, before, store.Calls())
	})

	t.Run("explicit bounds for another universe", func(t *testing.T) {
		_, err := e.ComputeFactors(ctx, FactorRequest{
			SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH", Universe: "JP",
			Bounds: &factor.UniverseBounds{Size: factor.Range{Lo: 50, Hi: 5000}},
		})
		assert.NoError(t, err)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := e.ComputeFactors(ctx, FactorRequest{SecurityID: "ZZZ", AsOf: asOf, BenchmarkID: "BENCH"})
		requireKind(t, err, contracts.KindNotFound)
		_, err = e.ComputeFactors(ctx, FactorRequest{SecurityID: "AAA", AsOf: asOf, BenchmarkID: "NOPE"})
		requireKind(t, err, contracts.KindNotFound)
		_, err = e.ComputeFactors(ctx, FactorRequest{
			SecurityID: "AAA", AsOf: asOf, BenchmarkID: "BENCH",
			Mode: contracts.ModeCrossSectional, PeerIDs: []string{"NOPE"},
		})
		requireKind(t, err, contracts.KindNotFound)
	})
}

// =============================================================================
// Diagnosis
// =============================================================================

func TestDiagnose(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	d, err := e.Diagnose(ctx, DiagnosisRequest{SecurityID: "CCC", AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, "CCC", d.SecurityID)
	assert.GreaterOrEqual(t, d.Score, 0.0)
	assert.LessOrEqual(t, d.Score, 100.0)
	assert.NotEmpty(t, d.Recommendation)

	_, err = e.Diagnose(ctx, DiagnosisRequest{SecurityID: "CCC", AsOf: asOf, LookbackDays: 10})
	requireKind(t, err, contracts.KindInsufficientHistory)

	_, err = e.Diagnose(ctx, DiagnosisRequest{SecurityID: "ZZZ", AsOf: asOf})
	requireKind(t, err, contracts.KindNotFound)
}

// =============================================================================
// Portfolio risk
// =============================================================================

func TestComputePortfolioRisk(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	seed := int64(42)

	req := RiskRequest{
		Weights:     contracts.PortfolioWeights{"AAA": 2, "BBB": 1, "CCC": 1},
		AsOf:        asOf,
		BenchmarkID: "BENCH",
		MonteCarlo:  &risk.MonteCarloConfig{Simulations: 2000, HorizonDays: 60, InitialCapital: 1e6, Seed: &seed},
		Frontier:    &FrontierParams{Points: 8},
	}

	report, err := e.ComputePortfolioRisk(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"AAA": 0.5, "BBB": 0.25, "CCC": 0.25}, report.Summary.Weights)
	assert.GreaterOrEqual(t, report.Summary.Observations, risk.MinRows)

	mc := report.MonteCarlo
	require.NotNil(t, mc)
	assert.LessOrEqual(t, mc.P05, mc.P50)
	assert.LessOrEqual(t, mc.P50, mc.P95)
	assert.GreaterOrEqual(t, mc.VaR95, 0.0)
	assert.GreaterOrEqual(t, mc.CVaR95, mc.VaR95)
	assert.Len(t, mc.SamplePaths, risk.DefaultSamplePaths)

	f := report.Frontier
	require.NotNil(t, f)
	for _, p := range append(f.Points, f.MaxSharpe) {
		sum := 0.0
		for _, w := range p.Weights {
			assert.GreaterOrEqual(t, w, -1e-6)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		assert.GreaterOrEqual(t, p.Std, f.MinVariance.Std-1e-12)
	}

	capm := report.CAPM
	require.NotNil(t, capm)
	assert.Greater(t, capm.Beta, 0.5)
	assert.Less(t, capm.Beta, 1.6)
	assert.LessOrEqual(t, capm.MaxDrawdown, 0.0)

	t.Run("seeded runs identical", func(t *testing.T) {
		again, err := e.ComputePortfolioRisk(ctx, req)
		require.NoError(t, err)
		if diff := cmp.Diff(report.MonteCarlo, again.MonteCarlo); diff != "" {
			t.Errorf("seeded monte carlo differs:\n%s", diff)
		}
	})
}

func TestComputePortfolioRiskSelfBenchmark(t *testing.T) {
	e, _ := newEngine(t)

	report, err := e.ComputePortfolioRisk(context.Background(), RiskRequest{
		Weights:     contracts.PortfolioWeights{"BENCH": 1},
		AsOf:        asOf,
		BenchmarkID: "BENCH",
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, report.CAPM.Beta, 1e-8)
	assert.InDelta(t, 0.0, report.CAPM.Alpha, 1e-8)
	assert.InDelta(t, report.CAPM.BenchmarkSharpe, report.CAPM.Sharpe, 1e-12)
	assert.Nil(t, report.MonteCarlo)
	assert.Nil(t, report.Frontier)
}

func TestComputePortfolioRiskCaching(t *testing.T) {
	e, store := newEngine(t)
	cache := newMapCache()
	e.WithCache(cache)
	ctx := context.Background()

	unseeded := RiskRequest{
		Weights:    contracts.PortfolioWeights{"AAA": 1, "BBB": 1},
		AsOf:       asOf,
		MonteCarlo: &risk.MonteCarloConfig{Simulations: 100, HorizonDays: 5, InitialCapital: 1000},
	}
	_, err := e.ComputePortfolioRisk(ctx, unseeded)
	require.NoError(t, err)
	assert.Zero(t, cache.sets, "unseeded simulations are never cached")

	seed := int64(3)
	seeded := unseeded
	seeded.MonteCarlo = &risk.MonteCarloConfig{Simulations: 100, HorizonDays: 5, InitialCapital: 1000, Seed: &seed}
	first, err := e.ComputePortfolioRisk(ctx, seeded)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	calls := store.Calls()
	second, err := e.ComputePortfolioRisk(ctx, seeded)
	require.NoError(t, err)
	assert.Equal(t, calls, store.Calls())
	if diff := cmp.Diff(first, second, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("cached report differs:\n%s", diff)
	}
}

func TestComputePortfolioRiskValidation(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	nan := math.NaN()

	tests := []struct {
		name string
		req  RiskRequest
		kind contracts.ErrorKind
	}{
		{"no weights", RiskRequest{AsOf: asOf}, contracts.KindInvalidParameters},
		{"zero sum", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 0}, AsOf: asOf}, contracts.KindInvalidParameters},
		{"negative weight", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 1, "BBB": -1}, AsOf: asOf}, contracts.KindInvalidParameters},
		{"nan weight", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": nan}, AsOf: asOf}, contracts.KindInvalidParameters},
		{"negative window", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 1}, AsOf: asOf, HistoryWindowDays: -5}, contracts.KindInvalidParameters},
		{"frontier single", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 1}, AsOf: asOf, Frontier: &FrontierParams{}}, contracts.KindDegenerateUniverse},
		{"frontier one point", RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 1, "BBB": 1}, AsOf: asOf, Frontier: &FrontierParams{Points: 1}}, contracts.KindInvalidParameters},
		{"bad simulation", RiskRequest{
			Weights: contracts.PortfolioWeights{"AAA": 1}, AsOf: asOf,
			MonteCarlo: &risk.MonteCarloConfig{Simulations: -1, HorizonDays: 5, InitialCapital: 1},
		}, contracts.KindInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := store.Calls()
			_, err := e.ComputePortfolioRisk(ctx, tt.req)
			requireKind(t, err, tt.kind)
			assert.Equal(t, before, store.Calls())
		})
	}

	t.Run("short window", func(t *testing.T) {
		_, err := e.ComputePortfolioRisk(ctx, RiskRequest{Weights: contracts.PortfolioWeights{"AAA": 1}, AsOf: asOf, HistoryWindowDays: 20})
		requireKind(t, err, contracts.KindInsufficientHistory)
	})
}
