package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/factor"
)

// factorHistoryDays covers 253 trading bars for the 252-day relative
// return plus holiday slack
const factorHistoryDays = 400

// Validate rejects malformed requests before any store access
func (r FactorRequest) Validate() error {
	switch {
	case r.SecurityID == "":
		return contracts.InvalidParameters("security_id", "required")
	case r.AsOf.IsZero():
		return contracts.InvalidParameters("as_of", "required")
	case r.BenchmarkID == "":
		return contracts.InvalidParameters("benchmark_id", "required")
	}

	switch r.Mode {
	case "", contracts.ModeBounded:
	case contracts.ModeCrossSectional:
		if len(r.PeerIDs) == 0 {
			return contracts.InvalidParameters("peer_ids", "cross-sectional mode requires peers")
		}
	default:
		return contracts.InvalidParameters("mode", "unknown mode %q", r.Mode)
	}

	for _, id := range r.PeerIDs {
		if id == "" {
			return contracts.InvalidParameters("peer_ids", "empty peer id")
		}
	}
	return nil
}

// ComputeFactors returns the factor scores of one security
func (e *Engine) ComputeFactors(ctx context.Context, req FactorRequest) (*contracts.FactorScore, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Universe == "" {
		req.Universe = e.opts.Universe
	}
	if req.Mode == "" {
		req.Mode = contracts.ModeBounded
	}
	bounds, err := factor.ResolveBounds(req.Universe, req.Bounds, e.opts.Bounds)
	if err != nil {
		return nil, err
	}

	asOf := dateOnly(req.AsOf)
	peers := append([]string(nil), req.PeerIDs...)
	sort.Strings(peers)

	key := cacheKey("factors", req.SecurityID, asOf, struct {
		Universe    string                      `json:"universe"`
		Bounds      factor.UniverseBounds       `json:"bounds"`
		BenchmarkID string                      `json:"benchmark_id"`
		Mode        contracts.NormalizationMode `json:"mode"`
		PeerIDs     []string                    `json:"peer_ids"`
	}{req.Universe, bounds, req.BenchmarkID, req.Mode, peers})

	var score contracts.FactorScore
	if e.cached(ctx, key, &score) {
		return &score, nil
	}

	start := time.Now()
	from := asOf.AddDate(0, 0, -factorHistoryDays)

	benchmark, err := e.store.LoadPrices(ctx, req.BenchmarkID, from, asOf, true)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", req.BenchmarkID, err)
	}

	target, err := e.factorInputs(ctx, req.SecurityID, benchmark, from, asOf)
	if err != nil {
		return nil, err
	}

	var peerInputs []factor.Inputs
	if req.Mode == contracts.ModeCrossSectional {
		for _, id := range peers {
			in, err := e.factorInputs(ctx, id, benchmark, from, asOf)
			if err != nil {
				return nil, fmt.Errorf("peer %s: %w", id, err)
			}
			peerInputs = append(peerInputs, in)
		}
	}

	out, err := factor.Score(target, peerInputs, factor.Params{
		SecurityID: req.SecurityID,
		AsOf:       asOf,
		Universe:   req.Universe,
		Bounds:     bounds,
		Mode:       req.Mode,
	})
	if err != nil {
		return nil, err
	}

	e.remember(ctx, key, out)
	e.done("factors.done", start, map[string]interface{}{
		"security_id": req.SecurityID,
		"mode":        string(req.Mode),
		"peers":       len(peerInputs),
		"total":       out.Total,
	})
	return out, nil
}

// factorInputs loads prices and every fundamental series the kernel reads
func (e *Engine) factorInputs(ctx context.Context, id string, benchmark contracts.SecuritySeries, from, asOf time.Time) (factor.Inputs, error) {
	series, err := e.store.LoadPrices(ctx, id, from, asOf, true)
	if err != nil {
		return factor.Inputs{}, err
	}

	in := factor.Inputs{
		Series:       series,
		Benchmark:    benchmark,
		Fundamentals: make(map[contracts.Metric][]contracts.FundamentalPoint, len(factor.FundamentalPeriods)),
	}
	for _, metric := range contracts.Metrics {
		periods, ok := factor.FundamentalPeriods[metric]
		if !ok {
			continue
		}
		points, err := e.store.LoadFundamentals(ctx, id, metric, asOf, periods)
		if err != nil {
			return factor.Inputs{}, fmt.Errorf("load %s: %w", metric, err)
		}
		in.Fundamentals[metric] = points
	}
	return in, nil
}
