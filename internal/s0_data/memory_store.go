package s0_data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// MemoryStore implements contracts.Store over in-process data.
// Used by tests and by the CLI with a JSON fixture.
type MemoryStore struct {
	mu           sync.RWMutex
	bars         map[string][]contracts.PriceBar
	fundamentals map[string][]contracts.FundamentalPoint
}

var _ contracts.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bars:         make(map[string][]contracts.PriceBar),
		fundamentals: make(map[string][]contracts.FundamentalPoint),
	}
}

// AddSeries registers a security with its bars, replacing previous bars
func (s *MemoryStore) AddSeries(securityID string, bars []contracts.PriceBar) error {
	series, err := contracts.NewSecuritySeries(securityID, bars)
	if err != nil {
		return err
	}
	for _, b := range series.All() {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contracts.PriceBar, 0, series.Len())
	for _, b := range series.All() {
		out = append(out, b)
	}
	s.bars[securityID] = out
	return nil
}

// AddFundamentals stores points; a later point replaces an earlier one
// with the same (security, metric, period)
func (s *MemoryStore) AddFundamentals(points ...contracts.FundamentalPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if !p.Metric.Valid() {
			return fmt.Errorf("unknown metric %q for %s", p.Metric, p.SecurityID)
		}
		if _, ok := s.bars[p.SecurityID]; !ok {
			s.bars[p.SecurityID] = nil
		}

		list := s.fundamentals[p.SecurityID]
		replaced := false
		for i := range list {
			if list[i].Metric == p.Metric && list[i].Period == p.Period {
				list[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, p)
		}
		s.fundamentals[p.SecurityID] = list
	}
	return nil
}

// LoadPrices implements contracts.Store
func (s *MemoryStore) LoadPrices(ctx context.Context, securityID string, start, end time.Time, adjusted bool) (contracts.SecuritySeries, error) {
	if err := ctx.Err(); err != nil {
		return contracts.SecuritySeries{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.window(securityID, start, end, adjusted)
}

// LoadFundamentals implements contracts.Store
func (s *MemoryStore) LoadFundamentals(ctx context.Context, securityID string, metric contracts.Metric, asOf time.Time, periods int) ([]contracts.FundamentalPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.bars[securityID]; !ok {
		return nil, contracts.NotFound("security_id", securityID)
	}
	if periods <= 0 {
		return nil, nil
	}

	var out []contracts.FundamentalPoint
	for _, p := range s.fundamentals[securityID] {
		if p.Metric == metric && !p.ReportDate.After(asOf) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	if len(out) > periods {
		out = out[:periods]
	}
	return out, nil
}

// LoadPanel implements contracts.Store
func (s *MemoryStore) LoadPanel(ctx context.Context, securityIDs []string, start, end time.Time, adjusted bool) (map[string]contracts.SecuritySeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	panel := make(map[string]contracts.SecuritySeries, len(securityIDs))
	for _, id := range securityIDs {
		series, err := s.window(id, start, end, adjusted)
		if err != nil {
			return nil, err
		}
		panel[id] = series
	}
	return panel, nil
}

// window must be called with the read lock held
func (s *MemoryStore) window(securityID string, start, end time.Time, adjusted bool) (contracts.SecuritySeries, error) {
	bars, ok := s.bars[securityID]
	if !ok {
		return contracts.SecuritySeries{}, contracts.NotFound("security_id", securityID)
	}

	var out []contracts.PriceBar
	for _, b := range bars {
		if b.TradeDate.Before(start) || b.TradeDate.After(end) {
			continue
		}
		if !adjusted {
			b.AdjustedClose = b.Close
		}
		out = append(out, b)
	}
	return contracts.NewSecuritySeries(securityID, out)
}

// =====================================================
// Fixture file
// =====================================================

const fixtureDateLayout = "2006-01-02"

// Fixture is the JSON layout accepted by LoadFixture
type Fixture struct {
	Securities []FixtureSecurity `json:"securities"`
}

// FixtureSecurity holds one security's bars and fundamentals
type FixtureSecurity struct {
	SecurityID   string               `json:"security_id"`
	Bars         []FixtureBar         `json:"bars"`
	Fundamentals []FixtureFundamental `json:"fundamentals"`
}

// FixtureBar is a bar with a plain YYYY-MM-DD date.
// AdjustedClose defaults to Close when zero.
type FixtureBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        float64 `json:"volume"`
	Missing       bool    `json:"missing"`
}

// FixtureFundamental is a fundamental point with a plain date
type FixtureFundamental struct {
	ReportDate string  `json:"report_date"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	Period     string  `json:"period"`
}

// LoadFixture reads a JSON fixture file into a new MemoryStore
func LoadFixture(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return fx.Store()
}

// Store builds a MemoryStore from the fixture
func (fx Fixture) Store() (*MemoryStore, error) {
	store := NewMemoryStore()

	for _, sec := range fx.Securities {
		bars := make([]contracts.PriceBar, 0, len(sec.Bars))
		for _, fb := range sec.Bars {
			d, err := time.Parse(fixtureDateLayout, fb.Date)
			if err != nil {
				return nil, fmt.Errorf("fixture %s: bad date %q: %w", sec.SecurityID, fb.Date, err)
			}
			adj := fb.AdjustedClose
			if adj == 0 {
				adj = fb.Close
			}
			bars = append(bars, contracts.PriceBar{
				SecurityID:    sec.SecurityID,
				TradeDate:     d,
				Open:          fb.Open,
				High:          fb.High,
				Low:           fb.Low,
				Close:         fb.Close,
				AdjustedClose: adj,
				Volume:        fb.Volume,
				Missing:       fb.Missing,
			})
		}
		if err := store.AddSeries(sec.SecurityID, bars); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", sec.SecurityID, err)
		}

		points := make([]contracts.FundamentalPoint, 0, len(sec.Fundamentals))
		for _, ff := range sec.Fundamentals {
			d, err := time.Parse(fixtureDateLayout, ff.ReportDate)
			if err != nil {
				return nil, fmt.Errorf("fixture %s: bad report date %q: %w", sec.SecurityID, ff.ReportDate, err)
			}
			points = append(points, contracts.FundamentalPoint{
				SecurityID: sec.SecurityID,
				ReportDate: d,
				Metric:     contracts.Metric(ff.Metric),
				Value:      ff.Value,
				Period:     ff.Period,
			})
		}
		if err := store.AddFundamentals(points...); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", sec.SecurityID, err)
		}
	}

	return store, nil
}
