package in

import (
	"context"

	"lectio/internal/modules/stats/dto"
)

type Usecase interface {
	Overview(ctx context.Context, days int) (dto.OverviewOutput, error)
	Books(ctx context.Context) ([]dto.BookTotalOutput, error)
}
