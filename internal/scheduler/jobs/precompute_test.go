package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/engine"
	"github.com/JUDRAGONII/AI----sub000/pkg/config"
	"github.com/JUDRAGONII/AI----sub000/pkg/logger"
)

type fakeWarmer struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error // keyed by security id
}

func (f *fakeWarmer) record(kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind+":"+id)
	return f.errs[id]
}

func (f *fakeWarmer) ComputeIndicators(_ context.Context, req engine.IndicatorRequest) (*contracts.IndicatorPanel, error) {
	return &contracts.IndicatorPanel{}, f.record("indicators", req.SecurityID)
}

func (f *fakeWarmer) ComputeFactors(_ context.Context, req engine.FactorRequest) (*contracts.FactorScore, error) {
	if req.BenchmarkID != "0050" || req.Universe != "TW" {
		return nil, errors.New("defaults not applied")
	}
	return &contracts.FactorScore{}, f.record("factors", req.SecurityID)
}

func (f *fakeWarmer) Diagnose(_ context.Context, req engine.DiagnosisRequest) (*engine.Diagnosis, error) {
	return &engine.Diagnosis{}, f.record("diagnosis", req.SecurityID)
}

func testConfig(watchlist ...string) *config.Config {
	return &config.Config{
		Analytics: config.AnalyticsConfig{DefaultBenchmark: "0050", DefaultUniverse: "TW"},
		Precompute: config.PrecomputeConfig{
			Schedule:   "0 30 18 * * 1-5",
			Watchlist:  watchlist,
			RatePerSec: 0, // unlimited
		},
	}
}

func TestPrecomputeRunFor(t *testing.T) {
	w := &fakeWarmer{errs: map[string]error{
		"NEW":    contracts.InsufficientHistory("prices", 20, 3),
		"BROKEN": errors.New("connection reset"),
	}}
	job := NewPrecomputeJob(w, testConfig("2330", "NEW", "BROKEN"), logger.Nop())

	summary, err := job.RunFor(context.Background(), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Computed)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 3, summary.Watchlist)
	assert.Equal(t, []string{"indicators:2330", "factors:2330", "diagnosis:2330"}, w.calls[:3])
}

func TestPrecomputeRunReportsFailures(t *testing.T) {
	w := &fakeWarmer{errs: map[string]error{"BROKEN": errors.New("connection reset")}}
	job := NewPrecomputeJob(w, testConfig("BROKEN"), logger.Nop())

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "3 of 3 computations failed")

	ok := NewPrecomputeJob(&fakeWarmer{}, testConfig("2330"), logger.Nop())
	assert.NoError(t, ok.Run(context.Background()))
	assert.Equal(t, "analytics_precompute", ok.Name())
	assert.Equal(t, "0 30 18 * * 1-5", ok.Schedule())
}

func TestPrecomputeRespectsCancellation(t *testing.T) {
	cfg := testConfig("2330", "2454")
	cfg.Precompute.RatePerSec = 0.001 // second token would take minutes
	job := NewPrecomputeJob(&fakeWarmer{}, cfg, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	summary, err := job.RunFor(ctx, time.Now())
	assert.Error(t, err)
	assert.Equal(t, 1, summary.Computed)
}
