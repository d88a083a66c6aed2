package diagnosis

import "time"

// Position levels
const (
	LevelHigh = "high"
	LevelMid  = "mid"
	LevelLow  = "low"
)

// MA alignments
const (
	AlignPerfectBull = "perfect_bull"
	AlignPerfectBear = "perfect_bear"
	AlignBullLean    = "bull_lean"
	AlignBearLean    = "bear_lean"
)

// Trend labels
const (
	TrendStrongUp   = "strong_up"
	TrendUp         = "up"
	TrendFlat       = "flat"
	TrendDown       = "down"
	TrendStrongDown = "strong_down"
)

// Volume-price relations and signals
const (
	PriceUpVolumeUp     = "price_up_volume_up"
	PriceUpVolumeDown   = "price_up_volume_down"
	PriceDownVolumeUp   = "price_down_volume_up"
	PriceDownVolumeDown = "price_down_volume_down"
	Consolidation       = "consolidation"

	SignalDivergence   = "divergence"
	SignalConfirmation = "confirmation"
	SignalNeutral      = "neutral"
)

// Recommendations
const (
	StrongBull = "strong_bull"
	LeanBull   = "lean_bull"
	Neutral    = "neutral"
	LeanBear   = "lean_bear"
	Bear       = "bear"
)

// Position is where the last close sits in the trailing range
type Position struct {
	Percentile float64 `json:"percentile"`
	Level      string  `json:"level"`
	RangeHigh  float64 `json:"range_high"`
	RangeLow   float64 `json:"range_low"`
	Bars       int     `json:"bars"`
}

// Trend is the moving-average alignment and MA20 slope
type Trend struct {
	Alignment string   `json:"alignment"`
	MA5       *float64 `json:"ma5"`
	MA20      *float64 `json:"ma20"`
	MA60      *float64 `json:"ma60"`
	Slope     float64  `json:"slope"`
	Label     string   `json:"label"`
	Strength  float64  `json:"strength"`
}

// VolumePrice relates the last price move to volume
type VolumePrice struct {
	PriceChangePct  float64 `json:"price_change_pct"`
	VolumeChangePct float64 `json:"volume_change_pct"`
	Relation        string  `json:"relation"`
	Signal          string  `json:"signal"`
}

// Diagnosis is the blended position/trend view of one security
type Diagnosis struct {
	SecurityID     string      `json:"security_id"`
	AsOf           time.Time   `json:"as_of"`
	Close          float64     `json:"close"`
	Position       Position    `json:"position"`
	Trend          Trend       `json:"trend"`
	VolumePrice    VolumePrice `json:"volume_price"`
	RSI            *float64    `json:"rsi"`
	Score          float64     `json:"score"`
	Recommendation string      `json:"recommendation"`
}
