package factor

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/indicator"
)

// Raw metric names, also the keys of FactorScore.Details
const (
	MetricPE                   = "pe"
	MetricPB                   = "pb"
	MetricDividendYield        = "dividend_yield"
	MetricEVEBITDA             = "ev_ebitda"
	MetricROE                  = "roe"
	MetricROA                  = "roa"
	MetricDebtToEquity         = "debt_to_equity"
	MetricGrossMarginStability = "gross_margin_stability"
	MetricRSI                  = "rsi_14"
	MetricRelativeReturn       = "relative_return"
	MetricDistanceFromHigh     = "distance_from_high"
	MetricMarketCap            = "market_cap"
	MetricVolatility           = "volatility"
	MetricRevenueCAGR          = "revenue_cagr"
	MetricEPSCAGR              = "eps_cagr"
)

const (
	tradingDaysPerYear   = 252
	minVolatilityReturns = 20
	minMarginQuarters    = 4
	maxMarginQuarters    = 8
	minGrowthQuarters    = 8
	maxGrowthQuarters    = 12
)

// FundamentalPeriods is how many quarters of each metric the kernel reads
var FundamentalPeriods = map[contracts.Metric]int{
	contracts.MetricEPS:                maxGrowthQuarters,
	contracts.MetricRevenue:            maxGrowthQuarters,
	contracts.MetricNetIncome:          4,
	contracts.MetricShareholdersEquity: 1,
	contracts.MetricTotalAssets:        1,
	contracts.MetricTotalLiabilities:   1,
	contracts.MetricEBITDA:             4,
	contracts.MetricGrossMargin:        maxMarginQuarters,
	contracts.MetricBookValuePerShare:  1,
	contracts.MetricSharesOutstanding:  1,
	contracts.MetricDividend:           4,
}

// Inputs is everything the kernel needs for one security
type Inputs struct {
	Series       contracts.SecuritySeries
	Benchmark    contracts.SecuritySeries
	Fundamentals map[contracts.Metric][]contracts.FundamentalPoint // most recent first
}

// Raw holds raw metric values; missing ones are NaN
type Raw map[string]float64

// ComputeRaw derives every raw metric. sizeUnit divides market cap.
func ComputeRaw(in Inputs, sizeUnit float64) Raw {
	closes := in.Series.Closes()
	price := lastValue(closes)

	f := func(m contracts.Metric) []contracts.FundamentalPoint { return in.Fundamentals[m] }
	shares := positive(contracts.Latest(f(contracts.MetricSharesOutstanding)))

	raw := Raw{}

	// value
	raw[MetricPE] = ratio(price, positive(contracts.TTM(f(contracts.MetricEPS))))
	raw[MetricPB] = ratio(price, positive(contracts.Latest(f(contracts.MetricBookValuePerShare))))
	raw[MetricDividendYield] = ratio(contracts.TTM(f(contracts.MetricDividend)), positive(price)) * 100
	raw[MetricEVEBITDA] = ratio(price*shares, positive(contracts.TTM(f(contracts.MetricEBITDA))))

	// quality
	ni := contracts.TTM(f(contracts.MetricNetIncome))
	equity := positive(contracts.Latest(f(contracts.MetricShareholdersEquity)))
	raw[MetricROE] = ratio(ni, equity) * 100
	raw[MetricROA] = ratio(ni, positive(contracts.Latest(f(contracts.MetricTotalAssets)))) * 100
	raw[MetricDebtToEquity] = ratio(contracts.Latest(f(contracts.MetricTotalLiabilities)), equity)
	raw[MetricGrossMarginStability] = marginStability(f(contracts.MetricGrossMargin))

	// momentum
	raw[MetricRSI] = lastValue(indicator.RSI(closes, indicator.RSIPeriod))
	raw[MetricRelativeReturn] = relativeReturn(in.Series, in.Benchmark, tradingDaysPerYear)
	raw[MetricDistanceFromHigh] = distanceFromHigh(closes, tradingDaysPerYear)

	// size
	raw[MetricMarketCap] = price * shares / sizeUnit

	// volatility
	raw[MetricVolatility] = annualizedVolatility(closes, tradingDaysPerYear)

	// growth
	raw[MetricRevenueCAGR] = ttmCAGR(f(contracts.MetricRevenue))
	raw[MetricEPSCAGR] = ttmCAGR(f(contracts.MetricEPS))

	for k, v := range raw {
		if contracts.IsMissing(v) {
			raw[k] = contracts.Missing()
		}
	}
	return raw
}

// positive keeps strictly positive values and marks the rest missing
func positive(x float64) float64 {
	if contracts.IsMissing(x) || x <= 0 {
		return contracts.Missing()
	}
	return x
}

func ratio(num, den float64) float64 {
	if contracts.IsMissing(num) || contracts.IsMissing(den) || den == 0 {
		return contracts.Missing()
	}
	return num / den
}

// lastValue returns the last non-missing value
func lastValue(x []float64) float64 {
	for i := len(x) - 1; i >= 0; i-- {
		if !contracts.IsMissing(x[i]) {
			return x[i]
		}
	}
	return contracts.Missing()
}

// marginStability is 1/(1+CV) over up to 8 quarterly margins
func marginStability(points []contracts.FundamentalPoint) float64 {
	if len(points) > maxMarginQuarters {
		points = points[:maxMarginQuarters]
	}
	margins := make([]float64, 0, len(points))
	for _, p := range points {
		if !contracts.IsMissing(p.Value) {
			margins = append(margins, p.Value)
		}
	}
	if len(margins) < minMarginQuarters {
		return contracts.Missing()
	}

	mean, err := stats.Mean(margins)
	if err != nil || mean == 0 {
		return contracts.Missing()
	}
	sd, err := stats.StandardDeviationSample(margins)
	if err != nil {
		return contracts.Missing()
	}
	return 1 / (1 + sd/math.Abs(mean))
}

// relativeReturn compares n-bar returns over dates both series traded, in percent
func relativeReturn(target, benchmark contracts.SecuritySeries, n int) float64 {
	bench := make(map[int64]float64, benchmark.Len())
	for _, b := range benchmark.All() {
		if !b.Missing {
			bench[b.TradeDate.Unix()] = b.AdjustedClose
		}
	}

	var t, b []float64
	for _, bar := range target.All() {
		if bar.Missing {
			continue
		}
		if bv, ok := bench[bar.TradeDate.Unix()]; ok {
			t = append(t, bar.AdjustedClose)
			b = append(b, bv)
		}
	}
	if len(t) < n+1 {
		return contracts.Missing()
	}

	last, first := len(t)-1, len(t)-1-n
	tr := t[last]/t[first] - 1
	br := b[last]/b[first] - 1
	return (tr - br) * 100
}

// distanceFromHigh is the percent gap of the last close below the
// trailing n-bar high
func distanceFromHigh(closes []float64, n int) float64 {
	last := lastValue(closes)
	if contracts.IsMissing(last) {
		return contracts.Missing()
	}
	start := max(0, len(closes)-n)
	high := math.Inf(-1)
	for _, c := range closes[start:] {
		if !contracts.IsMissing(c) {
			high = math.Max(high, c)
		}
	}
	return (last/high - 1) * 100
}

// dailyReturns uses consecutive pairs of non-missing closes
func dailyReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if contracts.IsMissing(closes[i]) || contracts.IsMissing(closes[i-1]) || closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// annualizedVolatility over the most recent n returns, in percent
func annualizedVolatility(closes []float64, n int) float64 {
	rets := dailyReturns(closes)
	if len(rets) > n {
		rets = rets[len(rets)-n:]
	}
	if len(rets) < minVolatilityReturns {
		return contracts.Missing()
	}
	sd, err := stats.StandardDeviationSample(rets)
	if err != nil {
		return contracts.Missing()
	}
	return sd * math.Sqrt(tradingDaysPerYear) * 100
}

// ttmCAGR compares the latest TTM with the oldest TTM in up to 12 quarters,
// in percent. Horizon is (n-4)/4 years.
func ttmCAGR(points []contracts.FundamentalPoint) float64 {
	if len(points) > maxGrowthQuarters {
		points = points[:maxGrowthQuarters]
	}
	n := len(points)
	if n < minGrowthQuarters {
		return contracts.Missing()
	}

	end := contracts.TTMAt(points, 0)
	start := contracts.TTMAt(points, n-4)
	if contracts.IsMissing(end) || contracts.IsMissing(start) || end <= 0 || start <= 0 {
		return contracts.Missing()
	}

	years := float64(n-4) / 4
	return (math.Pow(end/start, 1/years) - 1) * 100
}
