package engine

import (
	"context"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/risk"
)

// Validate rejects malformed requests before any store access
func (r RiskRequest) Validate() error {
	ids, _, err := r.Weights.Normalize()
	if err != nil {
		return err
	}

	switch {
	case r.AsOf.IsZero():
		return contracts.InvalidParameters("as_of", "required")
	case r.HistoryWindowDays < 0:
		return contracts.InvalidParameters("history_window_days", "must not be negative, got %d", r.HistoryWindowDays)
	case r.RiskFreeRate != nil && !finite(*r.RiskFreeRate):
		return contracts.InvalidParameters("risk_free_rate", "must be finite")
	}

	if r.Frontier != nil {
		if r.Frontier.Points < 0 || r.Frontier.Points == 1 {
			return contracts.InvalidParameters("frontier.points", "must be 0 or at least 2, got %d", r.Frontier.Points)
		}
		if len(ids) < 2 {
			return contracts.NewError(contracts.KindDegenerateUniverse, "weights",
				"efficient frontier needs at least two securities", map[string]interface{}{"securities": len(ids)})
		}
	}
	return nil
}

// ComputePortfolioRisk returns the portfolio summary plus the requested
// Monte Carlo, frontier and CAPM analytics, all from one store snapshot
func (e *Engine) ComputePortfolioRisk(ctx context.Context, req RiskRequest) (*RiskReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ids, w, _ := req.Weights.Normalize()

	if req.HistoryWindowDays == 0 {
		req.HistoryWindowDays = e.opts.HistoryWindowDays
	}
	rf := e.opts.RiskFreeRate
	if req.RiskFreeRate != nil {
		rf = *req.RiskFreeRate
	}
	var mcCfg *risk.MonteCarloConfig
	if req.MonteCarlo != nil {
		cfg := e.monteCarloDefaults(*req.MonteCarlo)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		mcCfg = &cfg
	}
	points := 0
	if req.Frontier != nil {
		points = req.Frontier.Points
		if points == 0 {
			points = e.opts.FrontierPoints
		}
	}

	asOf := dateOnly(req.AsOf)

	// 시드 없는 시뮬레이션은 재현 불가 → 캐시 금지
	key := ""
	if mcCfg == nil || mcCfg.Seed != nil {
		key = cacheKey("risk", portfolioID(ids, w), asOf, struct {
			Window      int                    `json:"window"`
			BenchmarkID string                 `json:"benchmark_id"`
			MonteCarlo  *risk.MonteCarloConfig `json:"monte_carlo"`
			Points      int                    `json:"points"`
			RiskFree    float64                `json:"risk_free"`
		}{req.HistoryWindowDays, req.BenchmarkID, mcCfg, points, rf})
	}

	var report RiskReport
	if e.cached(ctx, key, &report) {
		return &report, nil
	}

	start := time.Now()
	load := ids
	if req.BenchmarkID != "" {
		load = append(append([]string(nil), ids...), req.BenchmarkID)
	}
	panel, err := e.store.LoadPanel(ctx, load, asOf.AddDate(0, 0, -req.HistoryWindowDays), asOf, true)
	if err != nil {
		return nil, err
	}

	matrix, err := risk.BuildReturnsMatrix(ids, panel)
	if err != nil {
		return nil, err
	}
	moments, err := risk.EstimateMoments(matrix)
	if err != nil {
		return nil, err
	}

	out := &RiskReport{
		AsOf:    asOf,
		Summary: moments.Summarize(ids, w, rf, matrix.Rows()),
	}

	if mcCfg != nil {
		out.MonteCarlo, err = risk.NewMonteCarloSimulator(*mcCfg).Simulate(moments, w)
		if err != nil {
			return nil, err
		}
	}

	if points > 0 {
		out.Frontier, err = risk.EfficientFrontier(moments, ids, points, rf)
		if err != nil {
			return nil, err
		}
	}

	if req.BenchmarkID != "" {
		joint, err := risk.BuildReturnsMatrix(load, panel)
		if err != nil {
			return nil, err
		}
		bench := joint.Column(len(ids))
		out.CAPM, err = risk.CAPM(joint.PortfolioReturns(w), bench, rf)
		if err != nil {
			return nil, err
		}
	}

	e.remember(ctx, key, out)
	e.done("risk.done", start, map[string]interface{}{
		"securities":  len(ids),
		"rows":        matrix.Rows(),
		"monte_carlo": out.MonteCarlo != nil,
		"frontier":    out.Frontier != nil,
		"capm":        out.CAPM != nil,
	})
	return out, nil
}

// monteCarloDefaults fills zero fields from the engine options
func (e *Engine) monteCarloDefaults(cfg risk.MonteCarloConfig) risk.MonteCarloConfig {
	d := e.opts.MonteCarlo
	if cfg.Simulations == 0 {
		cfg.Simulations = d.Simulations
	}
	if cfg.HorizonDays == 0 {
		cfg.HorizonDays = d.HorizonDays
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = d.InitialCapital
	}
	if cfg.SamplePaths == 0 {
		cfg.SamplePaths = d.SamplePaths
	}
	return cfg
}
