package engine

import (
	"context"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/factor"
	"github.com/JUDRAGONII/AI----sub000/internal/risk"
	"github.com/JUDRAGONII/AI----sub000/pkg/config"
)

// Options holds the defaults applied when a request leaves a field empty
type Options struct {
	Universe          string
	Bounds            map[string]factor.UniverseBounds // from the bounds file
	RiskFreeRate      float64
	HistoryWindowDays int
	MonteCarlo        risk.MonteCarloConfig // Seed is never defaulted
	FrontierPoints    int
	CacheTTL          time.Duration
}

// OptionsFromConfig maps the analytics section of the config.
// bounds may be nil when no bounds file is configured.
func OptionsFromConfig(cfg *config.Config, bounds map[string]factor.UniverseBounds) Options {
	a := cfg.Analytics
	return Options{
		Universe:          a.DefaultUniverse,
		Bounds:            bounds,
		RiskFreeRate:      a.RiskFreeRate,
		HistoryWindowDays: a.HistoryWindowDays,
		MonteCarlo: risk.MonteCarloConfig{
			Simulations:    a.MCSimulations,
			HorizonDays:    a.MCHorizonDays,
			InitialCapital: a.MCInitialCapital,
			SamplePaths:    risk.DefaultSamplePaths,
		},
		FrontierPoints: a.FrontierPoints,
		CacheTTL:       a.CacheTTL,
	}
}

// Engine exposes the analytics entry points over a Store.
// Calls share no mutable state; each builds its own arrays.
// ⭐ SSOT: 분석 엔진 진입점은 여기서만
type Engine struct {
	store    contracts.Store
	opts     Options
	cache    contracts.Cache
	observer contracts.Observer
}

// New creates an engine with no cache and a silent observer
func New(store contracts.Store, opts Options) *Engine {
	if opts.HistoryWindowDays <= 0 {
		opts.HistoryWindowDays = 730
	}
	if opts.FrontierPoints < 2 {
		opts.FrontierPoints = risk.DefaultFrontierPoints
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}

	return &Engine{
		store:    store,
		opts:     opts,
		observer: contracts.NopObserver{},
	}
}

// WithCache enables read-through caching of results
func (e *Engine) WithCache(cache contracts.Cache) *Engine {
	e.cache = cache
	return e
}

// WithObserver routes engine events to obs
func (e *Engine) WithObserver(obs contracts.Observer) *Engine {
	if obs == nil {
		obs = contracts.NopObserver{}
	}
	e.observer = obs
	return e
}

// Options returns the effective defaults
func (e *Engine) Options() Options {
	return e.opts
}

// cached looks up key; ok reports a hit. Cache faults are reported to the
// observer and treated as misses.
func (e *Engine) cached(ctx context.Context, key string, dest interface{}) bool {
	if e.cache == nil || key == "" {
		return false
	}
	found, err := e.cache.Get(ctx, key, dest)
	if err != nil {
		e.observer.Observe("cache.error", map[string]interface{}{"key": key, "op": "get", "error": err.Error()})
		return false
	}
	if found {
		e.observer.Observe("cache.hit", map[string]interface{}{"key": key})
	}
	return found
}

func (e *Engine) remember(ctx context.Context, key string, value interface{}) {
	if e.cache == nil || key == "" {
		return
	}
	if err := e.cache.Set(ctx, key, value, e.opts.CacheTTL); err != nil {
		e.observer.Observe("cache.error", map[string]interface{}{"key": key, "op": "set", "error": err.Error()})
	}
}

// cacheKey returns "" when the params cannot be encoded, which disables caching
func cacheKey(kind, id string, asOf time.Time, params interface{}) string {
	key, err := contracts.CacheKey(kind, id, asOf, params)
	if err != nil {
		return ""
	}
	return key
}

func (e *Engine) done(event string, start time.Time, fields map[string]interface{}) {
	fields["duration_ms"] = time.Since(start).Milliseconds()
	e.observer.Observe(event, fields)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
