package service

import (
	"context"

	"lectio/internal/modules/stats/domain"
	statsout "lectio/internal/modules/stats/port/out"
	"lectio/internal/platform/clock"
)

const defaultWindowDays = 14

type StatsService struct {
	store statsout.StatsStore
	clock clock.Clock
}

func NewStatsService(store statsout.StatsStore, clk clock.Clock) *StatsService {
	return &StatsService{store: store, clock: clk}
}

// Overview aggregates the full history; the per-day slice is windowed to the
// requested number of trailing days, streaks always see every day.
func (s *StatsService) Overview(ctx context.Context, days int) (domain.Overview, error) {
	if days <= 0 {
		days = defaultWindowDays
	}
	all, err := s.store.DailyTotals(ctx)
	if err != nil {
		return domain.Overview{}, err
	}
	overview := domain.Overview{}
	for _, bucket := range all {
		overview.TotalSessions += bucket.Sessions
		overview.TotalActiveMs += bucket.ActiveMs
		overview.TotalPomodoros += bucket.Pomodoros
	}
	overview.CurrentStreakDays, overview.LongestStreakDays = domain.Streaks(all, s.clock.Now())
	if len(all) > days {
		all = all[len(all)-days:]
	}
	overview.Days = all
	return overview, nil
}

func (s *StatsService) Books(ctx context.Context) ([]domain.BookTotal, error) {
	return s.store.BookTotals(ctx)
}
