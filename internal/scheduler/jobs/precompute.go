package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/engine"
	"github.com/JUDRAGONII/AI----sub000/pkg/config"
	"github.com/JUDRAGONII/AI----sub000/pkg/logger"
)

// precomputeLookbackDays is the indicator window warmed for each security
const precomputeLookbackDays = 365

// Warmer is the part of the engine the precompute job drives
type Warmer interface {
	ComputeIndicators(ctx context.Context, req engine.IndicatorRequest) (*contracts.IndicatorPanel, error)
	ComputeFactors(ctx context.Context, req engine.FactorRequest) (*contracts.FactorScore, error)
	Diagnose(ctx context.Context, req engine.DiagnosisRequest) (*engine.Diagnosis, error)
}

// PrecomputeJob warms the result cache for the configured watchlist so
// daytime requests are served without touching the store
// ⭐ SSOT: 지표/팩터 사전 계산 스케줄은 이 Job에서만
type PrecomputeJob struct {
	engine    Warmer
	watchlist []string
	benchmark string
	universe  string
	schedule  string
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *logger.Logger
}

// NewPrecomputeJob creates the job from the precompute and analytics config
func NewPrecomputeJob(e Warmer, cfg *config.Config, log *logger.Logger) *PrecomputeJob {
	perSec := cfg.Precompute.RatePerSec
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}

	return &PrecomputeJob{
		engine:    e,
		watchlist: cfg.Precompute.Watchlist,
		benchmark: cfg.Analytics.DefaultBenchmark,
		universe:  cfg.Analytics.DefaultUniverse,
		schedule:  cfg.Precompute.Schedule,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
		logger:    log,
	}
}

// Name returns the job name
func (j *PrecomputeJob) Name() string {
	return "analytics_precompute"
}

// Schedule returns the cron schedule (weekdays after the close by default)
func (j *PrecomputeJob) Schedule() string {
	return j.schedule
}

// PrecomputeSummary counts the outcome of one run
type PrecomputeSummary struct {
	AsOf      time.Time `json:"as_of"`
	Computed  int       `json:"computed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"` // data-availability errors
	Watchlist int       `json:"watchlist"`
}

// Run executes the precompute for today's date
func (j *PrecomputeJob) Run(ctx context.Context) error {
	summary, err := j.RunFor(ctx, j.now())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("precompute: %d of %d computations failed", summary.Failed, summary.Computed+summary.Failed+summary.Skipped)
	}
	return nil
}

// RunFor computes indicators, factors and diagnosis of every watchlist
// security as of asOf. Each computation waits on the rate limiter.
func (j *PrecomputeJob) RunFor(ctx context.Context, asOf time.Time) (PrecomputeSummary, error) {
	summary := PrecomputeSummary{AsOf: asOf, Watchlist: len(j.watchlist)}

	j.logger.WithFields(map[string]interface{}{
		"securities": len(j.watchlist),
		"as_of":      asOf.Format("2006-01-02"),
	}).Info("Starting analytics precompute")

	for _, id := range j.watchlist {
		steps := []struct {
			name string
			run  func() error
		}{
			{"indicators", func() error {
				_, err := j.engine.ComputeIndicators(ctx, engine.IndicatorRequest{SecurityID: id, AsOf: asOf, LookbackDays: precomputeLookbackDays})
				return err
			}},
			{"factors", func() error {
				_, err := j.engine.ComputeFactors(ctx, engine.FactorRequest{SecurityID: id, AsOf: asOf, Universe: j.universe, BenchmarkID: j.benchmark})
				return err
			}},
			{"diagnosis", func() error {
				_, err := j.engine.Diagnose(ctx, engine.DiagnosisRequest{SecurityID: id, AsOf: asOf})
				return err
			}},
		}

		for _, step := range steps {
			if err := j.limiter.Wait(ctx); err != nil {
				return summary, fmt.Errorf("precompute interrupted: %w", err)
			}

			err := step.run()
			switch {
			case err == nil:
				summary.Computed++
			case errors.Is(err, contracts.ErrInsufficientHistory), errors.Is(err, contracts.ErrNotFound):
				summary.Skipped++
				j.logger.WithError(err).WithFields(map[string]interface{}{
					"security_id": id,
					"step":        step.name,
				}).Debug("Precompute skipped")
			default:
				summary.Failed++
				j.logger.WithError(err).WithFields(map[string]interface{}{
					"security_id": id,
					"step":        step.name,
				}).Warn("Precompute failed")
			}
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"computed": summary.Computed,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("Analytics precompute finished")

	return summary, nil
}
