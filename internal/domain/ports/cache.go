package ports

import (
	"context"

	"rate-history-service/internal/domain/model"
)

type SnapshotCache interface {
	Get(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, bool)
	Set(ctx context.Context, snapshot *model.RateSnapshot) error
	ClearExpired(ctx context.Context) error
	Close() error
}
