package diagnosis

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/indicator"
)

const (
	MinBars         = 20
	rangeWindow     = 252
	volumeWindow    = 20
	slopeLag        = 10
	volumeThreshold = 5.0
)

// Diagnose produces the position/trend diagnosis from the non-missing bars
// of series. Needs at least 20 bars.
// ⭐ SSOT: 포지션 진단은 여기서만
func Diagnose(series contracts.SecuritySeries, asOf time.Time) (*Diagnosis, error) {
	var closes, highs, lows, volumes []float64
	c, h, l, v := series.Closes(), series.Highs(), series.Lows(), series.Volumes()
	for i := range c {
		if contracts.IsMissing(c[i]) {
			continue
		}
		closes = append(closes, c[i])
		highs = append(highs, h[i])
		lows = append(lows, l[i])
		volumes = append(volumes, v[i])
	}
	if len(closes) < MinBars {
		return nil, contracts.InsufficientHistory("prices", MinBars, len(closes))
	}

	d := &Diagnosis{
		SecurityID:  series.SecurityID(),
		AsOf:        asOf,
		Close:       closes[len(closes)-1],
		Position:    position(closes, highs, lows),
		Trend:       trend(closes),
		VolumePrice: volumePrice(closes, volumes),
	}

	rsi := indicator.RSI(closes, indicator.RSIPeriod)
	if last := rsi[len(rsi)-1]; !contracts.IsMissing(last) {
		d.RSI = &last
	}

	d.Score = score(d)
	d.Recommendation = recommend(d.Score)
	return d, nil
}

func position(closes, highs, lows []float64) Position {
	start := max(0, len(closes)-rangeWindow)
	hi, lo := math.Inf(-1), math.Inf(1)
	for i := start; i < len(closes); i++ {
		hi = math.Max(hi, highs[i])
		lo = math.Min(lo, lows[i])
	}

	p := Position{RangeHigh: hi, RangeLow: lo, Bars: len(closes) - start, Percentile: 50}
	if hi > lo {
		p.Percentile = (closes[len(closes)-1] - lo) / (hi - lo) * 100
	}

	switch {
	case p.Percentile >= 70:
		p.Level = LevelHigh
	case p.Percentile <= 30:
		p.Level = LevelLow
	default:
		p.Level = LevelMid
	}
	return p
}

func trend(closes []float64) Trend {
	n := len(closes)
	ma5, ma20, ma60 := indicator.MA(closes, 5), indicator.MA(closes, 20), indicator.MA(closes, 60)
	last := closes[n-1]
	m5, m20, m60 := ma5[n-1], ma20[n-1], ma60[n-1]

	t := Trend{MA5: finite(m5), MA20: finite(m20), MA60: finite(m60)}

	// comparisons with a missing MA are false
	switch {
	case m5 > m20 && m20 > m60 && last > m5:
		t.Alignment = AlignPerfectBull
	case m5 < m20 && m20 < m60 && last < m5:
		t.Alignment = AlignPerfectBear
	case last > m5:
		t.Alignment = AlignBullLean
	default:
		t.Alignment = AlignBearLean
	}

	if n >= slopeLag {
		if prev := ma20[n-slopeLag]; !contracts.IsMissing(prev) && prev != 0 && !contracts.IsMissing(m20) {
			t.Slope = (m20/prev - 1) * 100
		}
	}

	bullish := t.Alignment == AlignPerfectBull || t.Alignment == AlignBullLean
	switch {
	case t.Slope > 5 && bullish:
		t.Label = TrendStrongUp
	case t.Slope > 0:
		t.Label = TrendUp
	case math.Abs(t.Slope) < 5:
		t.Label = TrendFlat
	case t.Slope < -10:
		t.Label = TrendStrongDown
	default:
		t.Label = TrendDown
	}

	t.Strength = math.Min(math.Abs(t.Slope)*10, 100)
	return t
}

func volumePrice(closes, volumes []float64) VolumePrice {
	n := len(closes)
	vp := VolumePrice{}

	change := closes[n-1] - closes[n-2]
	if closes[n-2] != 0 {
		vp.PriceChangePct = change / closes[n-2] * 100
	}

	mean, err := stats.Mean(volumes[n-volumeWindow:])
	if err == nil && mean > 0 {
		vp.VolumeChangePct = (volumes[n-1] - mean) / mean * 100
	}

	volumeUp := vp.VolumeChangePct > 0
	switch {
	case change == 0:
		vp.Relation = Consolidation
	case change > 0 && volumeUp:
		vp.Relation = PriceUpVolumeUp
	case change > 0:
		vp.Relation = PriceUpVolumeDown
	case volumeUp:
		vp.Relation = PriceDownVolumeUp
	default:
		vp.Relation = PriceDownVolumeDown
	}

	switch {
	case change > 0 && vp.VolumeChangePct < -volumeThreshold,
		change < 0 && vp.VolumeChangePct > volumeThreshold:
		vp.Signal = SignalDivergence
	case vp.Relation == PriceUpVolumeUp:
		vp.Signal = SignalConfirmation
	default:
		vp.Signal = SignalNeutral
	}
	return vp
}

var trendPoints = map[string]float64{
	TrendStrongUp:   20,
	TrendUp:         10,
	TrendFlat:       0,
	TrendDown:       -10,
	TrendStrongDown: -20,
}

func score(d *Diagnosis) float64 {
	s := 50.0

	switch d.Position.Level {
	case LevelLow:
		s += 15
	case LevelHigh:
		s -= 15
	}

	s += trendPoints[d.Trend.Label]

	if d.VolumePrice.Relation == PriceUpVolumeUp {
		s += 10
	}
	if d.VolumePrice.Signal == SignalDivergence {
		s -= 10
	}

	if d.RSI != nil {
		switch {
		case *d.RSI > 70:
			s -= 5
		case *d.RSI < 30:
			s += 5
		}
	}

	return math.Max(0, math.Min(100, s))
}

func recommend(s float64) string {
	switch {
	case s >= 70:
		return StrongBull
	case s >= 55:
		return LeanBull
	case s >= 45:
		return Neutral
	case s >= 30:
		return LeanBear
	default:
		return Bear
	}
}

func finite(x float64) *float64 {
	if contracts.IsMissing(x) {
		return nil
	}
	return &x
}
