package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-history-service/internal/domain/model"
	"rate-history-service/internal/metrics"
	"rate-history-service/pkg/logger"
)

// One metrics instance per test binary; promauto registers globally.
var testMetrics = metrics.NewMetrics()

type MockSnapshotRepository struct {
	FetchSnapshotFunc   func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error)
	FetchCurrenciesFunc func(ctx context.Context) (map[string]string, error)
}

func (m *MockSnapshotRepository) FetchSnapshot(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
	return m.FetchSnapshotFunc(ctx, base, date)
}

func (m *MockSnapshotRepository) FetchCurrencies(ctx context.Context) (map[string]string, error) {
	return m.FetchCurrenciesFunc(ctx)
}

type MockSnapshotCache struct {
	GetFunc func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool)
	SetFunc func(ctx context.Context, snapshot *model.RateSnapshot) error
}

func (m *MockSnapshotCache) Get(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool) {
	if m.GetFunc == nil {
		return nil, false
	}
	return m.GetFunc(ctx, base, date)
}

func (m *MockSnapshotCache) Set(ctx context.Context, snapshot *model.RateSnapshot) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, snapshot)
}

func (m *MockSnapshotCache) ClearExpired(ctx context.Context) error { return nil }

func (m *MockSnapshotCache) Close() error { return nil }

func newTestService(repo *MockSnapshotRepository, cache *MockSnapshotCache) *RateService {
	return NewRateService(repo, cache, 7, logger.NewLogger("error"), testMetrics)
}

var testReferenceDate = time.Date(2025, time.November, 4, 0, 0, 0, 0, time.UTC)

func fullSnapshot(base model.Currency, date model.DateKey) *model.RateSnapshot {
	return model.NewRateSnapshot(base, date, map[model.Currency]float64{
		"usd": 1.25,
		"eur": 1.10,
		"jpy": 130.5,
	})
}

func TestBuildTable_AllDatesPublished(t *testing.T) {
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			return fullSnapshot(base, date), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	require.Len(t, table.Dates, 7)
	assert.Equal(t, model.Currency("GBP"), table.BaseCurrency)
	assert.Equal(t, model.DateKey("2025-10-29"), table.Dates[0])
	assert.Equal(t, model.DateKey("2025-11-04"), table.Dates[6])

	expectedRates := map[model.Currency]float64{"USD": 1.25, "EUR": 1.10, "JPY": 130.5}
	for i, expectedCurrency := range []model.Currency{"USD", "EUR", "JPY"} {
		row := table.Rows[i]
		assert.Equal(t, expectedCurrency, row.Currency)
		require.Len(t, row.Rates, 7)
		for _, date := range table.Dates {
			cell := row.Rates[date]
			assert.True(t, cell.Known)
			assert.Equal(t, expectedRates[expectedCurrency], cell.Value)
		}
	}
}

func TestBuildTable_NoDataForWindow(t *testing.T) {
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			return model.NewUnavailableSnapshot(base, date), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Len(t, table.Dates, 7)
}

func TestBuildTable_PartialWindow(t *testing.T) {
	// Only the reference date has published data; the other six dates 404.
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			if date == "2025-11-04" {
				return fullSnapshot(base, date), nil
			}
			return model.NewUnavailableSnapshot(base, date), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	for _, row := range table.Rows {
		known := 0
		for _, cell := range row.Rates {
			if cell.Known {
				known++
			}
		}
		assert.Equal(t, 1, known)
		assert.True(t, row.Rates["2025-11-04"].Known)
	}
}

func TestBuildTable_MissingCurrencyYieldsNA(t *testing.T) {
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			return model.NewRateSnapshot(base, date, map[model.Currency]float64{"usd": 1.25}), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "XYZ"}, testReferenceDate)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	for _, date := range table.Dates {
		assert.True(t, table.Rows[0].Rates[date].Known)
		assert.False(t, table.Rows[1].Rates[date].Known)
	}
}

func TestBuildTable_FetchFailureAbortsRun(t *testing.T) {
	fetchErr := errors.New("connection reset")
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			if date == "2025-11-01" {
				return nil, fetchErr
			}
			return fullSnapshot(base, date), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	_, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExternalAPIFailure)
}

func TestBuildTable_DuplicateTargetKeepsUniqueIDs(t *testing.T) {
	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			return fullSnapshot(base, date), nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "USD"}, testReferenceDate)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "USD-0", table.Rows[0].ID)
	assert.Equal(t, "EUR-1", table.Rows[1].ID)
	assert.Equal(t, "USD-2", table.Rows[2].ID)
}

func TestBuildTable_InvalidCurrency(t *testing.T) {
	svc := newTestService(&MockSnapshotRepository{}, &MockSnapshotCache{})

	_, err := svc.BuildTable(context.Background(), "POUND", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "E!", "JPY"}, testReferenceDate)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestBuildTable_CacheHitSkipsRepository(t *testing.T) {
	var repoCalls atomic.Int32

	repo := &MockSnapshotRepository{
		FetchSnapshotFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
			repoCalls.Add(1)
			return fullSnapshot(base, date), nil
		},
	}
	cache := &MockSnapshotCache{
		GetFunc: func(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool) {
			return fullSnapshot(base, date), true
		},
	}

	svc := newTestService(repo, cache)

	table, err := svc.BuildTable(context.Background(), "GBP", []model.Currency{"USD", "EUR", "JPY"}, testReferenceDate)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
	assert.Equal(t, int32(0), repoCalls.Load())
}

func TestListCurrencies_FetchesOnceThenServesCached(t *testing.T) {
	var fetches atomic.Int32

	repo := &MockSnapshotRepository{
		FetchCurrenciesFunc: func(ctx context.Context) (map[string]string, error) {
			fetches.Add(1)
			return map[string]string{"usd": "US Dollar", "gbp": "British Pound"}, nil
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	currencies, err := svc.ListCurrencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "US Dollar", currencies["usd"])

	_, err = svc.ListCurrencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestListCurrencies_FetchFailure(t *testing.T) {
	repo := &MockSnapshotRepository{
		FetchCurrenciesFunc: func(ctx context.Context) (map[string]string, error) {
			return nil, errors.New("cdn unreachable")
		},
	}

	svc := newTestService(repo, &MockSnapshotCache{})

	_, err := svc.ListCurrencies(context.Background())
	assert.ErrorIs(t, err, ErrExternalAPIFailure)
}
