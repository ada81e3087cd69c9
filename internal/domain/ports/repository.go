package ports

import (
	"context"

	"rate-history-service/internal/domain/model"
)

// SnapshotRepository retrieves published rate data from the external API.
// FetchSnapshot returns an unavailable snapshot (and no error) when the API
// has nothing published for the date; errors are reserved for genuine
// failures.
type SnapshotRepository interface {
	FetchSnapshot(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error)
	FetchCurrencies(ctx context.Context) (map[string]string, error)
}
