package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rate-history-service/internal/domain/model"
	"rate-history-service/internal/domain/ports"
	"rate-history-service/internal/metrics"
	"rate-history-service/pkg/logger"
)

var (
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrInvalidCurrencyCount = errors.New("number of target currencies must be between 3 and 7")
	ErrDateOutOfRange       = errors.New("date is outside allowed range (older than 90 days or in the future)")
	ErrExternalAPIFailure   = errors.New("external API failure")
)

type RateService struct {
	repository  ports.SnapshotRepository
	cache       ports.SnapshotCache
	log         *logger.Logger
	metrics     *metrics.Metrics
	historyDays int

	currencyMutex sync.RWMutex
	currencies    map[string]string
}

func NewRateService(repository ports.SnapshotRepository, cache ports.SnapshotCache, historyDays int, log *logger.Logger, m *metrics.Metrics) *RateService {
	return &RateService{
		repository:  repository,
		cache:       cache,
		log:         log,
		metrics:     m,
		historyDays: historyDays,
	}
}

// BuildTable fetches the trailing window of snapshots for base, all dates
// concurrently, and reconciles them into one row per requested target
// currency in the caller's order.
//
// Reconciliation distinguishes two kinds of "no rate": a date the API never
// published (404, or a code missing from a published snapshot) becomes an N/A
// cell, while a genuine fetch failure on any date fails the whole build. A
// window with nothing published at all yields a table with zero rows, which
// is not an error.
func (s *RateService) BuildTable(ctx context.Context, base model.Currency, targets []model.Currency, referenceDate time.Time) (*model.RateTable, error) {
	if !base.IsValid() {
		return nil, ErrInvalidCurrency
	}
	for _, target := range targets {
		if !target.IsValid() {
			return nil, ErrInvalidCurrency
		}
	}

	start := time.Now()
	window := model.DateWindow(referenceDate, s.historyDays)

	snapshots := make([]*model.RateSnapshot, len(window))
	fetchErrs := make([]error, len(window))

	var wg sync.WaitGroup
	for i, date := range window {
		wg.Add(1)
		go func(i int, date model.DateKey) {
			defer wg.Done()
			snapshots[i], fetchErrs[i] = s.fetchSnapshot(ctx, base, date)
		}(i, date)
	}
	wg.Wait()

	for i, err := range fetchErrs {
		if err != nil {
			s.metrics.TableBuildsTotal.WithLabelValues("error").Inc()
			s.log.Error("Snapshot fetch failed", "error", err, "base", base, "date", window[i])
			return nil, fmt.Errorf("%w: %v", ErrExternalAPIFailure, err)
		}
	}

	table := s.reconcile(base, targets, window, snapshots)

	s.metrics.TableBuildDuration.Observe(time.Since(start).Seconds())
	if len(table.Rows) == 0 {
		s.metrics.TableBuildsTotal.WithLabelValues("empty").Inc()
		s.log.Info("No data published for entire window", "base", base, "reference_date", model.NewDateKey(referenceDate))
	} else {
		s.metrics.TableBuildsTotal.WithLabelValues("ok").Inc()
	}

	return table, nil
}

func (s *RateService) fetchSnapshot(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
	if snapshot, found := s.cache.Get(ctx, base, date); found {
		return snapshot, nil
	}

	snapshot, err := s.repository.FetchSnapshot(ctx, base, date)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, snapshot); err != nil {
		s.log.Error("Failed to cache snapshot", "error", err, "base", base, "date", date)
	}

	return snapshot, nil
}

func (s *RateService) reconcile(base model.Currency, targets []model.Currency, window []model.DateKey, snapshots []*model.RateSnapshot) *model.RateTable {
	table := &model.RateTable{
		BaseCurrency: base.Normalize(),
		Dates:        window,
		Rows:         []model.RateRow{},
	}

	published := false
	for _, snapshot := range snapshots {
		if !snapshot.Unavailable {
			published = true
			break
		}
	}
	if !published {
		return table
	}

	for i, target := range targets {
		row := model.RateRow{
			ID:       fmt.Sprintf("%s-%d", target.Normalize(), i),
			Currency: target.Normalize(),
			Rates:    make(map[model.DateKey]model.RateCell, len(window)),
		}

		for j, date := range window {
			if rate, ok := snapshots[j].LookUp(target); ok {
				row.Rates[date] = model.KnownRate(rate)
			} else {
				row.Rates[date] = model.RateCell{}
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table
}

// ListCurrencies returns the picker currency list, fetching it on first use.
func (s *RateService) ListCurrencies(ctx context.Context) (map[string]string, error) {
	s.currencyMutex.RLock()
	currencies := s.currencies
	s.currencyMutex.RUnlock()

	if currencies != nil {
		return currencies, nil
	}

	if err := s.RefreshCurrencies(ctx); err != nil {
		return nil, err
	}

	s.currencyMutex.RLock()
	defer s.currencyMutex.RUnlock()
	return s.currencies, nil
}

func (s *RateService) RefreshCurrencies(ctx context.Context) error {
	s.log.Info("Refreshing currency list")

	currencies, err := s.repository.FetchCurrencies(ctx)
	if err != nil {
		s.log.Error("Failed to refresh currency list", "error", err)
		return fmt.Errorf("%w: %v", ErrExternalAPIFailure, err)
	}

	s.currencyMutex.Lock()
	s.currencies = currencies
	s.currencyMutex.Unlock()

	if err := s.cache.ClearExpired(ctx); err != nil {
		s.log.Error("Failed to clear expired cache entries", "error", err)
	}

	return nil
}
