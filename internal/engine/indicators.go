package engine

import (
	"context"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/indicator"
)

// Validate rejects malformed requests before any store access
func (r IndicatorRequest) Validate() error {
	switch {
	case r.SecurityID == "":
		return contracts.InvalidParameters("security_id", "required")
	case r.AsOf.IsZero():
		return contracts.InvalidParameters("as_of", "required")
	case r.LookbackDays <= 0:
		return contracts.InvalidParameters("lookback_days", "must be positive, got %d", r.LookbackDays)
	}
	_, err := indicator.ParseSets(r.Indicators)
	return err
}

// ComputeIndicators returns the indicator panel of one security
func (e *Engine) ComputeIndicators(ctx context.Context, req IndicatorRequest) (*contracts.IndicatorPanel, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sets, _ := indicator.ParseSets(req.Indicators)
	asOf := dateOnly(req.AsOf)

	key := cacheKey("indicators", req.SecurityID, asOf, struct {
		LookbackDays int             `json:"lookback_days"`
		Sets         []indicator.Set `json:"sets"`
	}{req.LookbackDays, sets})

	var panel contracts.IndicatorPanel
	if e.cached(ctx, key, &panel) {
		return &panel, nil
	}

	start := time.Now()
	series, err := e.store.LoadPrices(ctx, req.SecurityID, asOf.AddDate(0, 0, -req.LookbackDays), asOf, true)
	if err != nil {
		return nil, err
	}
	if series.Empty() {
		return nil, contracts.InsufficientHistory("lookback_days", 1, 0)
	}

	out := indicator.Compute(series, asOf, sets)
	e.remember(ctx, key, out)
	e.done("indicators.done", start, map[string]interface{}{
		"security_id": req.SecurityID,
		"bars":        series.Len(),
		"columns":     len(out.Columns),
	})
	return out, nil
}
