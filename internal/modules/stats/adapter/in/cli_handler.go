package in

import (
	"context"

	"lectio/internal/modules/stats/dto"
	statsin "lectio/internal/modules/stats/port/in"
)

type CLIHandler struct {
	usecase statsin.Usecase
}

func NewCLIHandler(usecase statsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Overview(ctx context.Context, days int) (dto.OverviewOutput, error) {
	return h.usecase.Overview(ctx, days)
}

func (h CLIHandler) Books(ctx context.Context) ([]dto.BookTotalOutput, error) {
	return h.usecase.Books(ctx)
}
