package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/engine"
	"github.com/JUDRAGONII/AI----sub000/pkg/logger"
)

// Analytics is the engine surface the handlers call
type Analytics interface {
	ComputeIndicators(ctx context.Context, req engine.IndicatorRequest) (*contracts.IndicatorPanel, error)
	ComputeFactors(ctx context.Context, req engine.FactorRequest) (*contracts.FactorScore, error)
	Diagnose(ctx context.Context, req engine.DiagnosisRequest) (*engine.Diagnosis, error)
	ComputePortfolioRisk(ctx context.Context, req engine.RiskRequest) (*engine.RiskReport, error)
}

// AnalyticsHandler exposes the analytics engine over HTTP
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalyticsHandler struct {
	engine           Analytics
	defaultBenchmark string
	logger           *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(e Analytics, defaultBenchmark string, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine:           e,
		defaultBenchmark: defaultBenchmark,
		logger:           log,
	}
}

// GetIndicators returns the indicator panel of a security
// GET /api/securities/{id}/indicators?as_of=2024-12-31&lookback_days=365&indicators=rsi,macd
func (h *AnalyticsHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	lookback, err := parseInt(r, "lookback_days", 365)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	panel, err := h.engine.ComputeIndicators(r.Context(), engine.IndicatorRequest{
		SecurityID:   id,
		AsOf:         asOf,
		LookbackDays: lookback,
		Indicators:   parseList(r, "indicators"),
	})
	if err != nil {
		h.fail(w, r, err, id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    panel,
	})
}

// GetFactors returns the factor scores of a security
// GET /api/securities/{id}/factors?as_of=&universe=TW&benchmark=0050&mode=cross_sectional&peers=2317,2454
func (h *AnalyticsHandler) GetFactors(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	asOf, err := parseAsOf(q.Get("as_of"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	benchmark := q.Get("benchmark")
	if benchmark == "" {
		benchmark = h.defaultBenchmark
	}

	score, err := h.engine.ComputeFactors(r.Context(), engine.FactorRequest{
		SecurityID:  id,
		AsOf:        asOf,
		Universe:    q.Get("universe"),
		BenchmarkID: benchmark,
		Mode:        contracts.NormalizationMode(q.Get("mode")),
		PeerIDs:     parseList(r, "peers"),
	})
	if err != nil {
		h.fail(w, r, err, id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    score,
	})
}

// GetDiagnosis returns the position/trend diagnosis of a security
// GET /api/securities/{id}/diagnosis?as_of=
func (h *AnalyticsHandler) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	lookback, err := parseInt(r, "lookback_days", 0)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	d, err := h.engine.Diagnose(r.Context(), engine.DiagnosisRequest{SecurityID: id, AsOf: asOf, LookbackDays: lookback})
	if err != nil {
		h.fail(w, r, err, id)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    d,
	})
}

// riskBody accepts as_of as a plain date
type riskBody struct {
	engine.RiskRequest
	AsOf string `json:"as_of"`
}

// PostPortfolioRisk runs the portfolio analytics
// POST /api/portfolio/risk
func (h *AnalyticsHandler) PostPortfolioRisk(w http.ResponseWriter, r *http.Request) {
	var body riskBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	asOf, err := parseAsOf(body.AsOf)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	req := body.RiskRequest
	req.AsOf = asOf

	report, err := h.engine.ComputePortfolioRisk(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "portfolio")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, err error, subject string) {
	kind, ok := contracts.KindOf(err)
	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"path":       r.URL.Path,
		"subject":    subject,
		"request_id": RequestID(r.Context()),
	})
	if ok {
		entry.WithField("kind", string(kind)).Warn("Analytics request rejected")
	} else {
		entry.Error("Analytics request failed")
	}
	respondEngineError(w, err)
}
