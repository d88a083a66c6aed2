package indicator

import (
	"fmt"
	"strings"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// Set names a group of indicator columns
type Set string

const (
	SetMA        Set = "ma"
	SetEMA       Set = "ema"
	SetRSI       Set = "rsi"
	SetMACD      Set = "macd"
	SetBollinger Set = "bollinger"
	SetATR       Set = "atr"
	SetKD        Set = "kd"
	SetWilliamsR Set = "williams_r"
)

// AllSets in panel column order
var AllSets = []Set{SetMA, SetEMA, SetRSI, SetMACD, SetBollinger, SetATR, SetKD, SetWilliamsR}

// Periods used by the panel
var (
	MAPeriods  = []int{5, 10, 20, 60, 120}
	EMAPeriods = []int{12, 26}
)

const (
	RSIPeriod       = 14
	BollingerPeriod = 20
	BollingerWidth  = 2.0
	ATRPeriod       = 14
	KDPeriod        = 9
	KDSmoothing     = 3
	WilliamsPeriod  = 14
)

// Lookbacks maps each column to its lookback; the first lookback-1
// positions of the column are missing
var Lookbacks = map[string]int{
	"ma_5":      5,
	"ma_10":     10,
	"ma_20":     20,
	"ma_60":     60,
	"ma_120":    120,
	"ema_12":    12,
	"ema_26":    26,
	"rsi_14":    RSIPeriod + 1,
	"macd":      26,
	"signal":    26,
	"histogram": 26,
	"bb_upper":  BollingerPeriod,
	"bb_mid":    BollingerPeriod,
	"bb_lower":  BollingerPeriod,
	"atr_14":    ATRPeriod,
	"k":         KDPeriod,
	"d":         KDPeriod,
	"wr_14":     WilliamsPeriod,
}

// MaxLookback is the longest lookback of any column
const MaxLookback = 120

// ParseSets validates set names; an empty list selects every set.
// Duplicates are dropped and the canonical order is kept.
func ParseSets(names []string) ([]Set, error) {
	if len(names) == 0 {
		return AllSets, nil
	}

	wanted := make(map[Set]bool, len(names))
	for _, name := range names {
		s := Set(strings.ToLower(strings.TrimSpace(name)))
		known := false
		for _, k := range AllSets {
			if k == s {
				known = true
				break
			}
		}
		if !known {
			return nil, contracts.InvalidParameters("indicators", "unknown indicator %q", name)
		}
		wanted[s] = true
	}

	out := make([]Set, 0, len(wanted))
	for _, s := range AllSets {
		if wanted[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Compute builds the panel for the given sets. Pure: no store access,
// no clock.
// ⭐ SSOT: 기술적 지표 패널 생성은 여기서만
func Compute(series contracts.SecuritySeries, asOf time.Time, sets []Set) *contracts.IndicatorPanel {
	closes := series.Closes()
	highs, lows := series.Highs(), series.Lows()

	panel := &contracts.IndicatorPanel{
		SecurityID: series.SecurityID(),
		AsOf:       asOf,
		Dates:      series.Dates(),
	}
	add := func(name string, values []float64) {
		panel.Columns = append(panel.Columns, contracts.IndicatorColumn{Name: name, Values: values})
	}

	for _, set := range sets {
		switch set {
		case SetMA:
			for _, n := range MAPeriods {
				add(fmt.Sprintf("ma_%d", n), MA(closes, n))
			}
		case SetEMA:
			for _, n := range EMAPeriods {
				add(fmt.Sprintf("ema_%d", n), EMA(closes, n))
			}
		case SetRSI:
			add("rsi_14", RSI(closes, RSIPeriod))
		case SetMACD:
			m := MACD(closes)
			add("macd", m.MACD)
			add("signal", m.Signal)
			add("histogram", m.Histogram)
		case SetBollinger:
			b := Bollinger(closes, BollingerPeriod, BollingerWidth)
			add("bb_upper", b.Upper)
			add("bb_mid", b.Mid)
			add("bb_lower", b.Lower)
		case SetATR:
			add("atr_14", ATR(highs, lows, closes, ATRPeriod))
		case SetKD:
			kd := KD(highs, lows, closes, KDPeriod, KDSmoothing, KDSmoothing)
			add("k", kd.K)
			add("d", kd.D)
		case SetWilliamsR:
			add("wr_14", WilliamsR(highs, lows, closes, WilliamsPeriod))
		}
	}

	return panel
}
