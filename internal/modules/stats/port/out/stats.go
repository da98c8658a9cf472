package out

import (
	"context"

	"lectio/internal/modules/stats/domain"
)

// StatsStore reads aggregates straight from the session history projection.
type StatsStore interface {
	DailyTotals(ctx context.Context) ([]domain.DailyTotal, error)
	BookTotals(ctx context.Context) ([]domain.BookTotal, error)
}
