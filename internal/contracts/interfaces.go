package contracts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the read-only time series API consumed by the engine.
// Every call reads from one consistent snapshot.
// ⭐ SSOT: 엔진이 사용하는 유일한 데이터 접근 인터페이스
type Store interface {
	// LoadPrices returns bars in [start, end]. ErrNotFound for an unknown
	// security; an empty series when the window holds no bars.
	LoadPrices(ctx context.Context, securityID string, start, end time.Time, adjusted bool) (SecuritySeries, error)

	// LoadFundamentals returns up to periods points with report_date <= asOf,
	// most recent first. Unknown metric or no data yields an empty slice.
	LoadFundamentals(ctx context.Context, securityID string, metric Metric, asOf time.Time, periods int) ([]FundamentalPoint, error)

	// LoadPanel loads several series from the same snapshot
	LoadPanel(ctx context.Context, securityIDs []string, start, end time.Time, adjusted bool) (map[string]SecuritySeries, error)
}

// Cache is an opaque read-after-write result cache
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Observer receives engine events. The engine is silent without one.
type Observer interface {
	Observe(event string, fields map[string]interface{})
}

// NopObserver discards events
type NopObserver struct{}

// Observe implements Observer
func (NopObserver) Observe(string, map[string]interface{}) {}

// CacheKey builds kind:id:asof:sha256(params JSON).
// Struct fields marshal in declaration order and map keys sorted, so the
// encoding is canonical for a given request type.
func CacheKey(kind, identifier string, asOf time.Time, params interface{}) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache key params: %w", err)
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s:%s:%s", kind, identifier, asOf.Format("2006-01-02"), hex.EncodeToString(sum[:])), nil
}
