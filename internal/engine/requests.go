package engine

import (
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/diagnosis"
	"github.com/JUDRAGONII/AI----sub000/internal/factor"
	"github.com/JUDRAGONII/AI----sub000/internal/risk"
)

// IndicatorRequest asks for an indicator panel over the trailing
// LookbackDays calendar days ending at AsOf. Empty Indicators means all.
type IndicatorRequest struct {
	SecurityID   string    `json:"security_id"`
	AsOf         time.Time `json:"as_of"`
	LookbackDays int       `json:"lookback_days"`
	Indicators   []string  `json:"indicators,omitempty"`
}

// FactorRequest asks for the six factor scores of one security
type FactorRequest struct {
	SecurityID  string                      `json:"security_id"`
	AsOf        time.Time                   `json:"as_of"`
	Universe    string                      `json:"universe,omitempty"`
	Bounds      *factor.UniverseBounds      `json:"bounds,omitempty"`
	BenchmarkID string                      `json:"benchmark_id"`
	Mode        contracts.NormalizationMode `json:"mode,omitempty"`
	PeerIDs     []string                    `json:"peer_ids,omitempty"`
}

// DiagnosisRequest asks for a position/trend diagnosis
type DiagnosisRequest struct {
	SecurityID   string    `json:"security_id"`
	AsOf         time.Time `json:"as_of"`
	LookbackDays int       `json:"lookback_days,omitempty"` // 0 means one year plus slack
}

// FrontierParams requests an efficient frontier sweep
type FrontierParams struct {
	Points int `json:"points,omitempty"` // 0 means the engine default
}

// RiskRequest asks for portfolio analytics. MonteCarlo and Frontier are
// optional; CAPM runs when BenchmarkID is set.
type RiskRequest struct {
	Weights           contracts.PortfolioWeights `json:"weights"`
	AsOf              time.Time                  `json:"as_of"`
	HistoryWindowDays int                        `json:"history_window_days,omitempty"`
	BenchmarkID       string                     `json:"benchmark_id,omitempty"`
	MonteCarlo        *risk.MonteCarloConfig     `json:"monte_carlo,omitempty"`
	Frontier          *FrontierParams            `json:"frontier,omitempty"`
	RiskFreeRate      *float64                   `json:"risk_free_rate,omitempty"`
}

// RiskReport bundles the requested portfolio analytics
type RiskReport struct {
	AsOf       time.Time              `json:"as_of"`
	Summary    *risk.Summary          `json:"summary"`
	MonteCarlo *risk.MonteCarloResult `json:"monte_carlo,omitempty"`
	Frontier   *risk.Frontier         `json:"frontier,omitempty"`
	CAPM       *risk.CAPMResult       `json:"capm,omitempty"`
}

// Diagnosis is re-exported so callers need only this package
type Diagnosis = diagnosis.Diagnosis
