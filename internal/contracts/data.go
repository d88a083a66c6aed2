package contracts

import (
	"fmt"
	"iter"
	"math"
	"time"
)

// PriceBar is one daily OHLCV record
// ⭐ SSOT: S0 → 분석 엔진 가격 데이터 전달
type PriceBar struct {
	SecurityID    string    `json:"security_id"`
	TradeDate     time.Time `json:"trade_date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`          // display only
	AdjustedClose float64   `json:"adjusted_close"` // feeds every derived computation
	Volume        float64   `json:"volume"`
	Missing       bool      `json:"missing,omitempty"`
}

// Validate checks the OHLC ordering invariants. Missing bars are not checked.
func (b PriceBar) Validate() error {
	if b.Missing {
		return nil
	}
	lo, hi := math.Min(b.Open, b.Close), math.Max(b.Open, b.Close)
	switch {
	case b.Close <= 0:
		return fmt.Errorf("bar %s %s: close must be positive", b.SecurityID, b.TradeDate.Format("2006-01-02"))
	case b.Low > lo || hi > b.High:
		return fmt.Errorf("bar %s %s: low <= open/close <= high violated", b.SecurityID, b.TradeDate.Format("2006-01-02"))
	case b.Volume < 0:
		return fmt.Errorf("bar %s %s: negative volume", b.SecurityID, b.TradeDate.Format("2006-01-02"))
	}
	return nil
}

// adjustment returns the split/dividend factor applied to raw prices
func (b PriceBar) adjustment() float64 {
	if b.Close == 0 {
		return 1
	}
	return b.AdjustedClose / b.Close
}

// SecuritySeries is a strictly increasing run of bars for one security.
// Gaps are allowed; nothing is imputed. The zero value is an empty series.
type SecuritySeries struct {
	securityID string
	bars       []PriceBar
}

// NewSecuritySeries validates ordering and returns the series.
// The bars slice is copied.
func NewSecuritySeries(securityID string, bars []PriceBar) (SecuritySeries, error) {
	out := make([]PriceBar, len(bars))
	copy(out, bars)

	for i := range out {
		if out[i].SecurityID == "" {
			out[i].SecurityID = securityID
		}
		if out[i].SecurityID != securityID {
			return SecuritySeries{}, fmt.Errorf("bar %d belongs to %s, not %s", i, out[i].SecurityID, securityID)
		}
		if i > 0 && !out[i].TradeDate.After(out[i-1].TradeDate) {
			return SecuritySeries{}, fmt.Errorf("series %s not strictly increasing at %s",
				securityID, out[i].TradeDate.Format("2006-01-02"))
		}
	}

	return SecuritySeries{securityID: securityID, bars: out}, nil
}

// SecurityID returns the owning security
func (s SecuritySeries) SecurityID() string { return s.securityID }

// Len returns the number of bars
func (s SecuritySeries) Len() int { return len(s.bars) }

// Empty reports whether the series has no bars
func (s SecuritySeries) Empty() bool { return len(s.bars) == 0 }

// Bar returns the i-th bar
func (s SecuritySeries) Bar(i int) PriceBar { return s.bars[i] }

// Last returns the most recent bar. Panics on an empty series.
func (s SecuritySeries) Last() PriceBar { return s.bars[len(s.bars)-1] }

// All iterates (index, bar). The sequence can be ranged any number of times.
func (s SecuritySeries) All() iter.Seq2[int, PriceBar] {
	return func(yield func(int, PriceBar) bool) {
		for i, b := range s.bars {
			if !yield(i, b) {
				return
			}
		}
	}
}

// Until returns the prefix of bars traded on or before t
func (s SecuritySeries) Until(t time.Time) SecuritySeries {
	n := 0
	for n < len(s.bars) && !s.bars[n].TradeDate.After(t) {
		n++
	}
	return SecuritySeries{securityID: s.securityID, bars: s.bars[:n]}
}

// Dates returns the trade dates
func (s SecuritySeries) Dates() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.TradeDate
	}
	return out
}

// Closes returns adjusted closes; missing bars are NaN
func (s SecuritySeries) Closes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.AdjustedClose })
}

// RawCloses returns unadjusted closes; missing bars are NaN
func (s SecuritySeries) RawCloses() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Close })
}

// Highs returns highs rescaled onto the adjusted close basis
func (s SecuritySeries) Highs() []float64 {
	return s.column(func(b PriceBar) float64 { return b.High * b.adjustment() })
}

// Lows returns lows rescaled onto the adjusted close basis
func (s SecuritySeries) Lows() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Low * b.adjustment() })
}

// Volumes returns traded volume; missing bars are NaN
func (s SecuritySeries) Volumes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Volume })
}

func (s SecuritySeries) column(get func(PriceBar) float64) []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		if b.Missing {
			out[i] = Missing()
			continue
		}
		out[i] = get(b)
	}
	return out
}

// Metric names a fundamental data item
type Metric string

const (
	MetricEPS                Metric = "eps"
	MetricRevenue            Metric = "revenue"
	MetricNetIncome          Metric = "net_income"
	MetricShareholdersEquity Metric = "shareholders_equity"
	MetricTotalAssets        Metric = "total_assets"
	MetricTotalLiabilities   Metric = "total_liabilities"
	MetricEBITDA             Metric = "ebitda"
	MetricGrossMargin        Metric = "gross_margin"
	MetricBookValuePerShare  Metric = "book_value_per_share"
	MetricSharesOutstanding  Metric = "shares_outstanding"
	MetricDividend           Metric = "dividend"
)

// Metrics lists every known metric
var Metrics = []Metric{
	MetricEPS, MetricRevenue, MetricNetIncome, MetricShareholdersEquity,
	MetricTotalAssets, MetricTotalLiabilities, MetricEBITDA, MetricGrossMargin,
	MetricBookValuePerShare, MetricSharesOutstanding, MetricDividend,
}

// Valid reports whether m is a known metric
func (m Metric) Valid() bool {
	for _, k := range Metrics {
		if k == m {
			return true
		}
	}
	return false
}

// FundamentalPoint is one quarterly value (period such as "2024Q3")
type FundamentalPoint struct {
	SecurityID string    `json:"security_id"`
	ReportDate time.Time `json:"report_date"`
	Metric     Metric    `json:"metric"`
	Value      float64   `json:"value"`
	Period     string    `json:"period"`
}

// TTM sums the four most recent points (input is most recent first).
// Returns Missing when fewer than four are present.
func TTM(points []FundamentalPoint) float64 {
	return TTMAt(points, 0)
}

// TTMAt sums points[offset:offset+4]
func TTMAt(points []FundamentalPoint, offset int) float64 {
	if offset < 0 || len(points) < offset+4 {
		return Missing()
	}
	sum := 0.0
	for _, p := range points[offset : offset+4] {
		sum += p.Value
	}
	return sum
}

// Latest returns the most recent value or Missing
func Latest(points []FundamentalPoint) float64 {
	if len(points) == 0 {
		return Missing()
	}
	return points[0].Value
}
