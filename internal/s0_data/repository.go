package s0_data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/pkg/database"
	"github.com/JUDRAGONII/AI----sub000/pkg/logger"
)

// PostgresStore implements contracts.Store on PostgreSQL.
// Each call runs inside one read-only REPEATABLE READ transaction.
//
// Expected tables:
//
//	data.securities    (security_id PK, ...)
//	data.daily_prices  (security_id, trade_date, open_price, high_price, low_price,
//	                    close_price, adj_close, volume)
//	data.fundamentals  (security_id, report_date, metric, value, period)
type PostgresStore struct {
	db           *database.DB
	prices       PriceRepository
	fundamentals FundamentalRepository
	logger       *logger.Logger
}

var _ contracts.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *database.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

// LoadPrices implements contracts.Store
func (s *PostgresStore) LoadPrices(ctx context.Context, securityID string, start, end time.Time, adjusted bool) (contracts.SecuritySeries, error) {
	var series contracts.SecuritySeries
	err := s.db.WithSnapshot(ctx, func(tx pgx.Tx) error {
		var err error
		series, err = s.prices.LoadSeries(ctx, tx, securityID, start, end, adjusted)
		return err
	})
	if err != nil {
		return contracts.SecuritySeries{}, err
	}

	s.logger.WithFields(map[string]interface{}{
		"security_id": securityID,
		"bars":        series.Len(),
	}).Debug("Loaded prices")

	return series, nil
}

// LoadFundamentals implements contracts.Store
func (s *PostgresStore) LoadFundamentals(ctx context.Context, securityID string, metric contracts.Metric, asOf time.Time, periods int) ([]contracts.FundamentalPoint, error) {
	var points []contracts.FundamentalPoint
	err := s.db.WithSnapshot(ctx, func(tx pgx.Tx) error {
		exists, err := s.prices.securityExists(ctx, tx, securityID)
		if err != nil {
			return err
		}
		if !exists {
			return contracts.NotFound("security_id", securityID)
		}
		points, err = s.fundamentals.LoadMetric(ctx, tx, securityID, metric, asOf, periods)
		return err
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// LoadPanel implements contracts.Store
func (s *PostgresStore) LoadPanel(ctx context.Context, securityIDs []string, start, end time.Time, adjusted bool) (map[string]contracts.SecuritySeries, error) {
	panel := make(map[string]contracts.SecuritySeries, len(securityIDs))
	err := s.db.WithSnapshot(ctx, func(tx pgx.Tx) error {
		for _, id := range securityIDs {
			series, err := s.prices.LoadSeries(ctx, tx, id, start, end, adjusted)
			if err != nil {
				return err
			}
			panel[id] = series
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"securities": len(securityIDs),
	}).Debug("Loaded panel")

	return panel, nil
}
