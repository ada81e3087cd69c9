package ports

import (
	"context"
	"time"

	"rate-history-service/internal/domain/model"
)

type RateService interface {
	BuildTable(ctx context.Context, base model.Currency, targets []model.Currency, referenceDate time.Time) (*model.RateTable, error)
	ListCurrencies(ctx context.Context) (map[string]string, error)
	RefreshCurrencies(ctx context.Context) error
}
