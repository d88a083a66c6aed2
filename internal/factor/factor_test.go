package factor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

var asOf = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

// series builds n daily bars ending at asOf with close = scale*f(i)
func series(t *testing.T, id string, n int, scale float64, f func(i int) float64) contracts.SecuritySeries {
	t.Helper()
	bars := make([]contracts.PriceBar, n)
	for i := range bars {
		c := scale * f(i)
		bars[i] = contracts.PriceBar{
			SecurityID:    id,
			TradeDate:     asOf.AddDate(0, 0, i-n+1),
			Open:          c,
			High:          c * 1.02,
			Low:           c * 0.98,
			Close:         c,
			AdjustedClose: c,
			Volume:        1e6,
		}
	}
	s, err := contracts.NewSecuritySeries(id, bars)
	require.NoError(t, err)
	return s
}

func wave(phase float64) func(int) float64 {
	return func(i int) float64 {
		return 100 + 15*math.Sin(float64(i)/11+phase) + 0.03*float64(i)
	}
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func quarters(id string, metric contracts.Metric, values ...float64) []contracts.FundamentalPoint {
	out := make([]contracts.FundamentalPoint, len(values))
	for i, v := range values {
		year, q := 2024, 1-i
		for q <= 0 {
			q += 4
			year--
		}
		out[i] = contracts.FundamentalPoint{
			SecurityID: id,
			Metric:     metric,
			Value:      v,
			Period:     fmt.Sprintf("%dQ%d", year, q),
			ReportDate: asOf.AddDate(0, -3*i-1, 0),
		}
	}
	return out
}

func twParams(mode contracts.NormalizationMode) Params {
	return Params{SecurityID: "2330", AsOf: asOf, Universe: "TW", Bounds: Presets["TW"], Mode: mode}
}

func TestBounded(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		lo   float64
		hi   float64
		dir  Direction
		want float64
	}{
		{"mid direct", 20, 10, 30, HigherIsBetter, 50},
		{"clamped high", 100, 10, 30, HigherIsBetter, 100},
		{"clamped low", -5, 10, 30, HigherIsBetter, 0},
		{"inverted", 12.5, 5, 30, LowerIsBetter, 70},
		{"inverted floor", 50, 5, 30, LowerIsBetter, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bounded(tt.x, tt.lo, tt.hi, tt.dir), 1e-9)
		})
	}

	assert.True(t, math.IsNaN(Bounded(math.NaN(), 0, 1, HigherIsBetter)))
}

func TestPercentileRank(t *testing.T) {
	values := []float64{1, 2, 3, 4, math.NaN()}

	assert.Equal(t, 100.0, PercentileRank(4, values, HigherIsBetter))
	assert.Equal(t, 25.0, PercentileRank(1, values, HigherIsBetter))
	assert.Equal(t, 100.0, PercentileRank(1, values, LowerIsBetter))
	assert.InDelta(t, 50.0, PercentileRank(2, []float64{2, 2, 3}, HigherIsBetter), 1e-12)
	assert.True(t, math.IsNaN(PercentileRank(math.NaN(), values, HigherIsBetter)))
}

func TestWeightedMeanRenormalizes(t *testing.T) {
	got, ok := weightedMean([]float64{80, math.NaN(), 40}, []float64{0.3, 0.3, 0.2})
	require.True(t, ok)
	assert.InDelta(t, (80*0.3+40*0.2)/0.5, got, 1e-12)

	got, ok = weightedMean([]float64{math.NaN()}, []float64{1})
	assert.False(t, ok)
	assert.Equal(t, 50.0, got)
}

func TestScorePriceOnly(t *testing.T) {
	in := Inputs{
		Series:    series(t, "2330", 300, 1, wave(0)),
		Benchmark: series(t, "0050", 300, 1, wave(1)),
	}

	score, err := Score(in, nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)

	for _, s := range []contracts.SubScore{score.Value, score.Quality, score.Growth, score.Size} {
		assert.True(t, s.Missing)
		assert.Equal(t, 50.0, s.Score)
	}
	assert.False(t, score.Momentum.Missing)
	assert.False(t, score.Volatility.Missing)
	assert.InDelta(t, (score.Momentum.Score+score.Volatility.Score)/2, score.Total, 1e-12)
	assert.Equal(t, contracts.ModeBounded, score.Mode)
	assert.Contains(t, score.Details, MetricRelativeReturn)
	assert.NotContains(t, score.Details, MetricPE)
}

func TestScoreValueComponents(t *testing.T) {
	in := Inputs{
		Series:    series(t, "2330", 30, 1, constant(100)),
		Benchmark: series(t, "0050", 30, 1, constant(50)),
		Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
			contracts.MetricEPS:               quarters("2330", contracts.MetricEPS, 2, 2, 2, 2),
			contracts.MetricBookValuePerShare: quarters("2330", contracts.MetricBookValuePerShare, 50),
			contracts.MetricDividend:          quarters("2330", contracts.MetricDividend, 1, 1, 1, 1),
			contracts.MetricEBITDA:            quarters("2330", contracts.MetricEBITDA, 2.5e9, 2.5e9, 2.5e9, 2.5e9),
			contracts.MetricSharesOutstanding: quarters("2330", contracts.MetricSharesOutstanding, 1e9),
		},
	}

	score, err := Score(in, nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)

	// P/E 12.5 -> 70, P/B 2 -> 66.67, yield 4% -> 40, EV/EBITDA 10 -> 58.82
	want := 0.3*70 + 0.3*(100-1.5/4.5*100) + 0.2*40 + 0.2*(100-7.0/17*100)
	assert.InDelta(t, want, score.Value.Score, 1e-9)
	assert.InDelta(t, 12.5, score.Details[MetricPE], 1e-12)

	// market cap 1000 (hundreds of millions) hits the TW ceiling
	assert.InDelta(t, 1000, score.Details[MetricMarketCap], 1e-9)
	assert.Equal(t, 100.0, score.Size.Score)

	// flat price: zero volatility, no losses
	assert.Equal(t, 100.0, score.Volatility.Score)
	assert.Equal(t, 100.0, score.Details[MetricRSI])
}

func TestScoreNonPositiveEarningsDropsPE(t *testing.T) {
	in := Inputs{
		Series:    series(t, "X", 30, 1, constant(100)),
		Benchmark: series(t, "B", 30, 1, constant(100)),
		Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
			contracts.MetricEPS:               quarters("X", contracts.MetricEPS, -1, 0.5, 0.2, 0.1),
			contracts.MetricBookValuePerShare: quarters("X", contracts.MetricBookValuePerShare, 100),
		},
	}

	score, err := Score(in, nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)
	assert.NotContains(t, score.Details, MetricPE)
	// only P/B = 1 remains
	assert.InDelta(t, 100-0.5/4.5*100, score.Value.Score, 1e-9)
}

func TestGrowthAndStability(t *testing.T) {
	// TTM revenue doubles over one year (8 quarters -> horizon 1y)
	rev := quarters("X", contracts.MetricRevenue, 20, 20, 20, 20, 10, 10, 10, 10)
	assert.InDelta(t, 100.0, ttmCAGR(rev), 1e-9)
	assert.True(t, math.IsNaN(ttmCAGR(rev[:7])))

	loss := quarters("X", contracts.MetricRevenue, 20, 20, 20, 20, -10, -10, -10, -10)
	assert.True(t, math.IsNaN(ttmCAGR(loss)))

	flat := quarters("X", contracts.MetricGrossMargin, 40, 40, 40, 40)
	assert.Equal(t, 1.0, marginStability(flat))
	assert.True(t, math.IsNaN(marginStability(flat[:3])))
}

func TestScoreSplitInvariance(t *testing.T) {
	build := func(scale float64) Inputs {
		return Inputs{
			Series:    series(t, "2330", 300, scale, wave(0)),
			Benchmark: series(t, "0050", 300, 1, wave(2)),
			Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
				contracts.MetricEPS:               quarters("2330", contracts.MetricEPS, 2*scale, 1.8*scale, 1.7*scale, 1.5*scale, 1.4*scale, 1.3*scale, 1.2*scale, 1.1*scale),
				contracts.MetricRevenue:           quarters("2330", contracts.MetricRevenue, 9, 9, 8, 8, 7, 7, 6, 6),
				contracts.MetricBookValuePerShare: quarters("2330", contracts.MetricBookValuePerShare, 40*scale),
				contracts.MetricDividend:          quarters("2330", contracts.MetricDividend, scale, scale, scale, scale),
				contracts.MetricSharesOutstanding: quarters("2330", contracts.MetricSharesOutstanding, 2.5e9/scale),
				contracts.MetricEBITDA:            quarters("2330", contracts.MetricEBITDA, 3e10, 3e10, 3e10, 3e10),
			},
		}
	}

	base, err := Score(build(1), nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)
	split, err := Score(build(0.5), nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)

	if diff := cmp.Diff(base, split, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("score changed under split rescaling (-base +split):\n%s", diff)
	}
}

func TestScoreCrossSectional(t *testing.T) {
	target := Inputs{
		Series:    series(t, "A", 300, 1, wave(0)),
		Benchmark: series(t, "0050", 300, 1, wave(1)),
		Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
			contracts.MetricEPS: quarters("A", contracts.MetricEPS, 5, 5, 5, 5),
		},
	}
	peer := func(id string, eps float64) Inputs {
		return Inputs{
			Series:    series(t, id, 300, 1, wave(0)),
			Benchmark: target.Benchmark,
			Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
				contracts.MetricEPS: quarters(id, contracts.MetricEPS, eps, eps, eps, eps),
			},
		}
	}

	peers := []Inputs{peer("B", 1), peer("C", 2), peer("D", 3), {}}
	score, err := Score(target, peers, twParams(contracts.ModeCrossSectional))
	require.NoError(t, err)

	assert.Equal(t, contracts.ModeCrossSectional, score.Mode)
	// highest EPS at the same price -> lowest P/E -> best rank
	assert.Equal(t, 100.0, score.Value.Score)
	// identical price paths tie on volatility: average rank 2.5 of 4
	assert.InDelta(t, 62.5, score.Volatility.Score, 1e-9)

	_, err = Score(target, nil, twParams(contracts.ModeCrossSectional))
	assert.ErrorIs(t, err, contracts.ErrInvalidParameters)
}

func TestScoreRangesAndIdempotence(t *testing.T) {
	in := Inputs{
		Series:    series(t, "2330", 400, 1, wave(0.3)),
		Benchmark: series(t, "0050", 400, 1, wave(1.3)),
		Fundamentals: map[contracts.Metric][]contracts.FundamentalPoint{
			contracts.MetricNetIncome:          quarters("2330", contracts.MetricNetIncome, 3, 3, 3, 3),
			contracts.MetricShareholdersEquity: quarters("2330", contracts.MetricShareholdersEquity, 60),
			contracts.MetricTotalAssets:        quarters("2330", contracts.MetricTotalAssets, 100),
			contracts.MetricTotalLiabilities:   quarters("2330", contracts.MetricTotalLiabilities, 40),
			contracts.MetricGrossMargin:        quarters("2330", contracts.MetricGrossMargin, 50, 52, 49, 51, 50, 48),
		},
	}

	first, err := Score(in, nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)
	second, err := Score(in, nil, twParams(contracts.ModeBounded))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, s := range append(first.SubScores(), contracts.SubScore{Score: first.Total}) {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 100.0)
	}
	assert.False(t, first.Quality.Missing)
	assert.InDelta(t, 20.0, first.Details[MetricROE], 1e-9)
	assert.InDelta(t, 12.0, first.Details[MetricROA], 1e-9)
}

func TestScoreEmptySeries(t *testing.T) {
	_, err := Score(Inputs{}, nil, twParams(contracts.ModeBounded))
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestResolveBounds(t *testing.T) {
	b, err := ResolveBounds("tw", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Presets["TW"], b)

	_, err = ResolveBounds("JP", nil, nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidParameters)

	jp := UniverseBounds{Size: Range{Lo: 50, Hi: 5000}}
	b, err = ResolveBounds("JP", nil, map[string]UniverseBounds{"JP": jp})
	require.NoError(t, err)
	assert.Equal(t, jp, b)

	explicit := UniverseBounds{Size: Range{Lo: 1, Hi: 2}}
	b, err = ResolveBounds("TW", &explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, explicit, b)

	_, err = ResolveBounds("TW", &UniverseBounds{Size: Range{Lo: 5, Hi: 5}}, nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidParameters)
}

func TestLoadBoundsFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "bounds.yaml")
	require.NoError(t, os.WriteFile(good, []byte("universes:\n  jp:\n    size: {lo: 50, hi: 5000}\n"), 0o600))
	bounds, err := LoadBoundsFile(good)
	require.NoError(t, err)
	assert.Equal(t, Range{Lo: 50, Hi: 5000}, bounds["JP"].Size)
	assert.Equal(t, DefaultSizeUnit, bounds["JP"].unit())

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("universes:\n  JP:\n    sise: {lo: 50, hi: 5000}\n"), 0o600))
	_, err = LoadBoundsFile(typo)
	assert.Error(t, err)
}
