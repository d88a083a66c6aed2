package s0_data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

const fixtureJSON = `{
  "securities": [
    {
      "security_id": "2330",
      "bars": [
        {"date": "2024-01-02", "open": 590, "high": 593, "low": 589, "close": 593, "adjusted_close": 580, "volume": 1000},
        {"date": "2024-01-03", "open": 584, "high": 585, "low": 576, "close": 578, "volume": 2000},
        {"date": "2024-01-04", "missing": true},
        {"date": "2024-01-05", "open": 580, "high": 582, "low": 574, "close": 580, "volume": 1500}
      ],
      "fundamentals": [
        {"report_date": "2023-05-15", "metric": "eps", "value": 5.0, "period": "2023Q1"},
        {"report_date": "2023-08-14", "metric": "eps", "value": 6.0, "period": "2023Q2"},
        {"report_date": "2023-11-14", "metric": "eps", "value": 7.0, "period": "2023Q3"},
        {"report_date": "2024-02-20", "metric": "eps", "value": 9.0, "period": "2023Q4"}
      ]
    },
    {"security_id": "0050", "bars": []}
  ]
}`

func loadTestFixture(t *testing.T) *MemoryStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0o600))

	store, err := LoadFixture(path)
	require.NoError(t, err)
	return store
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestMemoryStoreLoadPrices(t *testing.T) {
	store := loadTestFixture(t)
	ctx := context.Background()

	t.Run("adjusted window", func(t *testing.T) {
		series, err := store.LoadPrices(ctx, "2330", date("2024-01-01"), date("2024-01-31"), true)
		require.NoError(t, err)
		assert.Equal(t, 4, series.Len())
		assert.Equal(t, 580.0, series.Closes()[0])
		assert.Equal(t, 578.0, series.Closes()[1], "adjusted close defaults to close")
		assert.True(t, contracts.IsMissing(series.Closes()[2]))
	})

	t.Run("unadjusted uses raw close", func(t *testing.T) {
		series, err := store.LoadPrices(ctx, "2330", date("2024-01-01"), date("2024-01-31"), false)
		require.NoError(t, err)
		assert.Equal(t, 593.0, series.Closes()[0])
	})

	t.Run("empty window is not an error", func(t *testing.T) {
		series, err := store.LoadPrices(ctx, "2330", date("2020-01-01"), date("2020-12-31"), true)
		require.NoError(t, err)
		assert.True(t, series.Empty())
	})

	t.Run("known security without bars", func(t *testing.T) {
		series, err := store.LoadPrices(ctx, "0050", date("2024-01-01"), date("2024-01-31"), true)
		require.NoError(t, err)
		assert.True(t, series.Empty())
	})

	t.Run("unknown security", func(t *testing.T) {
		_, err := store.LoadPrices(ctx, "9999", date("2024-01-01"), date("2024-01-31"), true)
		assert.ErrorIs(t, err, contracts.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.LoadPrices(cctx, "2330", date("2024-01-01"), date("2024-01-31"), true)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryStoreLoadFundamentals(t *testing.T) {
	store := loadTestFixture(t)
	ctx := context.Background()

	t.Run("most recent first, as-of filtered", func(t *testing.T) {
		points, err := store.LoadFundamentals(ctx, "2330", contracts.MetricEPS, date("2024-01-31"), 8)
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, "2023Q3", points[0].Period)
		assert.Equal(t, "2023Q1", points[2].Period)
	})

	t.Run("periods limit", func(t *testing.T) {
		points, err := store.LoadFundamentals(ctx, "2330", contracts.MetricEPS, date("2024-12-31"), 2)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, 9.0, points[0].Value)
	})

	t.Run("missing metric is empty", func(t *testing.T) {
		points, err := store.LoadFundamentals(ctx, "2330", contracts.MetricDividend, date("2024-12-31"), 4)
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("unknown security", func(t *testing.T) {
		_, err := store.LoadFundamentals(ctx, "9999", contracts.MetricEPS, date("2024-12-31"), 4)
		assert.ErrorIs(t, err, contracts.ErrNotFound)
	})
}

func TestMemoryStoreReplacesDuplicatePeriod(t *testing.T) {
	store := NewMemoryStore()
	p := contracts.FundamentalPoint{SecurityID: "AAPL", Metric: contracts.MetricRevenue, Period: "2024Q1", Value: 1}
	require.NoError(t, store.AddFundamentals(p))
	p.Value = 2
	require.NoError(t, store.AddFundamentals(p))

	points, err := store.LoadFundamentals(context.Background(), "AAPL", contracts.MetricRevenue, time.Now(), 4)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Value)
}

func TestMemoryStoreLoadPanel(t *testing.T) {
	store := loadTestFixture(t)

	panel, err := store.LoadPanel(context.Background(), []string{"2330", "0050"}, date("2024-01-01"), date("2024-01-31"), true)
	require.NoError(t, err)
	assert.Len(t, panel, 2)
	assert.Equal(t, 4, panel["2330"].Len())

	_, err = store.LoadPanel(context.Background(), []string{"2330", "NOPE"}, date("2024-01-01"), date("2024-01-31"), true)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestAddSeriesRejectsInvalidBars(t *testing.T) {
	store := NewMemoryStore()
	err := store.AddSeries("X", []contracts.PriceBar{
		{TradeDate: date("2024-01-02"), Open: 10, High: 9, Low: 8, Close: 10, AdjustedClose: 10},
	})
	assert.Error(t, err)
}
