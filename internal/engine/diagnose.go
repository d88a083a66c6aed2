package engine

import (
	"context"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/diagnosis"
)

// diagnosisHistoryDays spans the 252-bar range window with holiday slack
const diagnosisHistoryDays = 400

// Validate rejects malformed requests before any store access
func (r DiagnosisRequest) Validate() error {
	switch {
	case r.SecurityID == "":
		return contracts.InvalidParameters("security_id", "required")
	case r.AsOf.IsZero():
		return contracts.InvalidParameters("as_of", "required")
	case r.LookbackDays < 0:
		return contracts.InvalidParameters("lookback_days", "must not be negative, got %d", r.LookbackDays)
	}
	return nil
}

// Diagnose returns the position/trend diagnosis of one security
func (e *Engine) Diagnose(ctx context.Context, req DiagnosisRequest) (*Diagnosis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = diagnosisHistoryDays
	}
	asOf := dateOnly(req.AsOf)

	key := cacheKey("diagnosis", req.SecurityID, asOf, struct {
		LookbackDays int `json:"lookback_days"`
	}{req.LookbackDays})

	var d Diagnosis
	if e.cached(ctx, key, &d) {
		return &d, nil
	}

	start := time.Now()
	series, err := e.store.LoadPrices(ctx, req.SecurityID, asOf.AddDate(0, 0, -req.LookbackDays), asOf, true)
	if err != nil {
		return nil, err
	}

	out, err := diagnosis.Diagnose(series, asOf)
	if err != nil {
		return nil, err
	}

	e.remember(ctx, key, out)
	e.done("diagnosis.done", start, map[string]interface{}{
		"security_id":    req.SecurityID,
		"score":          out.Score,
		"recommendation": out.Recommendation,
	})
	return out, nil
}
