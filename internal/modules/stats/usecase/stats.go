package usecase

import (
	"context"

	"lectio/internal/modules/stats/domain"
	"lectio/internal/modules/stats/dto"
	statsin "lectio/internal/modules/stats/port/in"
	"lectio/internal/modules/stats/service"
)

type Interactor struct {
	svc *service.StatsService
}

func NewInteractor(svc *service.StatsService) statsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Overview(ctx context.Context, days int) (dto.OverviewOutput, error) {
	overview, err := i.svc.Overview(ctx, days)
	if err != nil {
		return dto.OverviewOutput{}, err
	}
	out := dto.OverviewOutput{
		TotalSessions:     overview.TotalSessions,
		TotalActiveMs:     overview.TotalActiveMs,
		TotalPomodoros:    overview.TotalPomodoros,
		CurrentStreakDays: overview.CurrentStreakDays,
		LongestStreakDays: overview.LongestStreakDays,
		Days:              make([]dto.DailyTotalOutput, 0, len(overview.Days)),
	}
	for _, bucket := range overview.Days {
		out.Days = append(out.Days, dto.DailyTotalOutput{
			Day:       bucket.Day,
			Sessions:  bucket.Sessions,
			ActiveMs:  bucket.ActiveMs,
			Pomodoros: bucket.Pomodoros,
		})
	}
	return out, nil
}

func (i *Interactor) Books(ctx context.Context) ([]dto.BookTotalOutput, error) {
	books, err := i.svc.Books(ctx)
	if err != nil {
		return nil, err
	}
	return mapBooks(books), nil
}

func mapBooks(books []domain.BookTotal) []dto.BookTotalOutput {
	out := make([]dto.BookTotalOutput, 0, len(books))
	for _, book := range books {
		out = append(out, dto.BookTotalOutput{
			BookID:     book.BookID,
			Title:      book.Title,
			Sessions:   book.Sessions,
			ActiveMs:   book.ActiveMs,
			Highlights: book.Highlights,
			Notes:      book.Notes,
			LastReadAt: book.LastReadAt,
		})
	}
	return out
}
