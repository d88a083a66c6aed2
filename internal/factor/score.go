package factor

import (
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// component is one weighted sub-indicator of a category
type component struct {
	metric string
	weight float64
	lo, hi float64
	dir    Direction
}

// category names match the FactorScore fields
type category struct {
	name       string
	components []component
}

// categories returns the composition table; size bounds come from the universe
func categories(ub UniverseBounds) []category {
	return []category{
		{"value", []component{
			{MetricPE, 0.3, 5, 30, LowerIsBetter},
			{MetricPB, 0.3, 0.5, 5, LowerIsBetter},
			{MetricDividendYield, 0.2, 0, 10, HigherIsBetter},
			{MetricEVEBITDA, 0.2, 3, 20, LowerIsBetter},
		}},
		{"quality", []component{
			{MetricROE, 0.35, 0, 30, HigherIsBetter},
			{MetricROA, 0.25, 0, 20, HigherIsBetter},
			{MetricDebtToEquity, 0.25, 0, 2, LowerIsBetter},
			{MetricGrossMarginStability, 0.15, 0, 1, HigherIsBetter},
		}},
		{"momentum", []component{
			{MetricRSI, 0.3, 30, 70, HigherIsBetter},
			{MetricRelativeReturn, 0.4, -20, 50, HigherIsBetter},
			{MetricDistanceFromHigh, 0.3, -30, 0, HigherIsBetter},
		}},
		{"size", []component{
			{MetricMarketCap, 1, ub.Size.Lo, ub.Size.Hi, HigherIsBetter},
		}},
		{"volatility", []component{
			{MetricVolatility, 1, 10, 50, LowerIsBetter},
		}},
		{"growth", []component{
			{MetricRevenueCAGR, 0.5, -10, 30, HigherIsBetter},
			{MetricEPSCAGR, 0.5, -10, 30, HigherIsBetter},
		}},
	}
}

// Params identifies the score being produced
type Params struct {
	SecurityID string
	AsOf       time.Time
	Universe   string
	Bounds     UniverseBounds
	Mode       contracts.NormalizationMode
}

// Score computes the six sub-scores and the composite total.
// In cross-sectional mode every raw metric is ranked among the target and
// the peers; peers without prices are skipped. Pure function.
// ⭐ SSOT: 팩터 점수 산출은 여기서만
func Score(target Inputs, peers []Inputs, p Params) (*contracts.FactorScore, error) {
	if target.Series.Empty() {
		return nil, contracts.InsufficientHistory("prices", 1, 0)
	}

	unit := p.Bounds.unit()
	raw := ComputeRaw(target, unit)

	var normalize func(c component) float64
	switch p.Mode {
	case contracts.ModeBounded, "":
		p.Mode = contracts.ModeBounded
		normalize = func(c component) float64 {
			return Bounded(raw[c.metric], c.lo, c.hi, c.dir)
		}
	case contracts.ModeCrossSectional:
		if len(peers) == 0 {
			return nil, contracts.InvalidParameters("peer_ids", "cross-sectional mode requires peers")
		}
		set := []Raw{raw}
		for _, peer := range peers {
			if peer.Series.Empty() {
				continue
			}
			set = append(set, ComputeRaw(peer, unit))
		}
		normalize = func(c component) float64 {
			values := make([]float64, len(set))
			for i, r := range set {
				values[i] = r[c.metric]
			}
			return PercentileRank(raw[c.metric], values, c.dir)
		}
	default:
		return nil, contracts.InvalidParameters("mode", "unknown mode %q", p.Mode)
	}

	subs := make(map[string]contracts.SubScore, 6)
	for _, cat := range categories(p.Bounds) {
		scores := make([]float64, len(cat.components))
		weights := make([]float64, len(cat.components))
		for i, c := range cat.components {
			scores[i] = normalize(c)
			weights[i] = c.weight
		}
		if s, ok := weightedMean(scores, weights); ok {
			subs[cat.name] = contracts.SubScore{Score: s}
		} else {
			subs[cat.name] = contracts.MissingScore()
		}
	}

	out := &contracts.FactorScore{
		SecurityID: p.SecurityID,
		AsOf:       p.AsOf,
		Universe:   p.Universe,
		Mode:       p.Mode,
		Value:      subs["value"],
		Quality:    subs["quality"],
		Momentum:   subs["momentum"],
		Size:       subs["size"],
		Volatility: subs["volatility"],
		Growth:     subs["growth"],
		Details:    make(map[string]float64, len(raw)),
	}
	out.Total = contracts.CompositeTotal(out.SubScores())

	for k, v := range raw {
		if !contracts.IsMissing(v) {
			out.Details[k] = v
		}
	}
	return out, nil
}
