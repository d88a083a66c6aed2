package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// FundamentalRepository reads quarterly fundamentals
// ⭐ SSOT: 재무 데이터 조회 쿼리는 여기서만
type FundamentalRepository struct{}

// LoadMetric returns up to periods points reported on or before asOf,
// most recent period first
func (FundamentalRepository) LoadMetric(ctx context.Context, q querier, securityID string, metric contracts.Metric, asOf time.Time, periods int) ([]contracts.FundamentalPoint, error) {
	if !metric.Valid() || periods <= 0 {
		return nil, nil
	}

	query := `
		SELECT report_date, value::float8, period
		FROM data.fundamentals
		WHERE security_id = $1 AND metric = $2 AND report_date <= $3 AND value IS NOT NULL
		ORDER BY period DESC
		LIMIT $4
	`

	rows, err := q.Query(ctx, query, securityID, string(metric), asOf, periods)
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", securityID, metric, err)
	}
	defer rows.Close()

	var points []contracts.FundamentalPoint
	for rows.Next() {
		p := contracts.FundamentalPoint{SecurityID: securityID, Metric: metric}
		if err := rows.Scan(&p.ReportDate, &p.Value, &p.Period); err != nil {
			return nil, fmt.Errorf("scan %s %s: %w", securityID, metric, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
