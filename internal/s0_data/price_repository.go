package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// querier is the subset of pgx.Tx the repositories need
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PriceRepository reads daily bars
// ⭐ SSOT: 가격 데이터 조회 쿼리는 여기서만
type PriceRepository struct{}

// securityExists checks the security master
func (PriceRepository) securityExists(ctx context.Context, q querier, securityID string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM data.securities WHERE security_id = $1)`,
		securityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check security %s: %w", securityID, err)
	}
	return exists, nil
}

// LoadSeries returns the bars of one security in [from, to]
func (r PriceRepository) LoadSeries(ctx context.Context, q querier, securityID string, from, to time.Time, adjusted bool) (contracts.SecuritySeries, error) {
	exists, err := r.securityExists(ctx, q, securityID)
	if err != nil {
		return contracts.SecuritySeries{}, err
	}
	if !exists {
		return contracts.SecuritySeries{}, contracts.NotFound("security_id", securityID)
	}

	query := `
		SELECT trade_date,
		       COALESCE(open_price, 0)::float8,
		       COALESCE(high_price, 0)::float8,
		       COALESCE(low_price, 0)::float8,
		       COALESCE(close_price, 0)::float8,
		       COALESCE(adj_close, close_price, 0)::float8,
		       COALESCE(volume, 0)::float8,
		       close_price IS NULL
		FROM data.daily_prices
		WHERE security_id = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := q.Query(ctx, query, securityID, from, to)
	if err != nil {
		return contracts.SecuritySeries{}, fmt.Errorf("query prices %s: %w", securityID, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		b := contracts.PriceBar{SecurityID: securityID}
		if err := rows.Scan(&b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjustedClose, &b.Volume, &b.Missing); err != nil {
			return contracts.SecuritySeries{}, fmt.Errorf("scan price %s: %w", securityID, err)
		}
		if !adjusted {
			b.AdjustedClose = b.Close
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return contracts.SecuritySeries{}, fmt.Errorf("iterate prices %s: %w", securityID, err)
	}

	return contracts.NewSecuritySeries(securityID, bars)
}
