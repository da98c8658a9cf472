package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sessionout "lectio/internal/modules/session/adapter/out"
	sessiondomain "lectio/internal/modules/session/domain"
	statsout "lectio/internal/modules/stats/adapter/out"
)

func seedSessions(t *testing.T, dbPath string) {
	t.Helper()
	records, err := sessionout.NewSQLiteRecordStore(dbPath)
	if err != nil {
		t.Fatalf("open record store: %v", err)
	}
	day1 := time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.March, 9, 21, 0, 0, 0, time.UTC)
	seed := []sessiondomain.Record{
		{
			ID: "se-1", BookID: "deep-work", BookTitle: "Deep Work",
			StartedAt: day1, EndedAt: day1.Add(30 * time.Minute),
			ActiveMs: 1_500_000, CompletedPomodoros: 1, Highlights: 2, Notes: 1,
			Phase: sessiondomain.PhaseCompleted,
		},
		{
			ID: "se-2", BookID: "deep-work", BookTitle: "Deep Work",
			StartedAt: day1.Add(2 * time.Hour), EndedAt: day1.Add(3 * time.Hour),
			ActiveMs: 2_400_000, CompletedPomodoros: 2, Highlights: 1, Notes: 0,
			Phase: sessiondomain.PhaseCompleted,
		},
		{
			ID: "se-3", BookID: "dune", BookTitle: "Dune",
			StartedAt: day2, EndedAt: day2.Add(20 * time.Minute),
			ActiveMs: 1_200_000, CompletedPomodoros: 0, Highlights: 3, Notes: 2,
			Phase: sessiondomain.PhaseCompleted,
		},
		{
			ID: "se-4", BookID: "dune", BookTitle: "Dune",
			StartedAt: day2.Add(time.Hour),
			ActiveMs:  5_000,
			Phase:     sessiondomain.PhaseRunning,
		},
	}
	for _, rec := range seed {
		if err := records.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed record %s: %v", rec.ID, err)
		}
	}
}

func TestStatsStoreAggregatesSessions(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "lectio.db")
	seedSessions(t, dbPath)

	store, err := statsout.NewSQLiteStatsStore(dbPath)
	if err != nil {
		t.Fatalf("open stats store: %v", err)
	}

	days, err := store.DailyTotals(context.Background())
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected two day buckets, got %+v", days)
	}
	if days[0].Day != "2026-03-08" || days[0].Sessions != 2 || days[0].ActiveMs != 3_900_000 || days[0].Pomodoros != 3 {
		t.Fatalf("unexpected first bucket: %+v", days[0])
	}
	if days[1].Day != "2026-03-09" || days[1].Sessions != 1 {
		t.Fatalf("running session must not count, got %+v", days[1])
	}

	books, err := store.BookTotals(context.Background())
	if err != nil {
		t.Fatalf("book totals: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected two books, got %+v", books)
	}
	if books[0].BookID != "deep-work" || books[0].Sessions != 2 || books[0].ActiveMs != 3_900_000 {
		t.Fatalf("expected deep-work first by active time, got %+v", books[0])
	}
	if books[0].Highlights != 3 || books[0].Notes != 1 {
		t.Fatalf("unexpected deep-work annotation totals: %+v", books[0])
	}
	if books[1].BookID != "dune" || books[1].Title != "Dune" {
		t.Fatalf("unexpected second book: %+v", books[1])
	}
	wantLast := time.Date(2026, time.March, 9, 21, 20, 0, 0, time.UTC)
	if !books[1].LastReadAt.Equal(wantLast) {
		t.Fatalf("expected last read %s, got %s", wantLast, books[1].LastReadAt)
	}
}

func TestStatsStoreEmptyHome(t *testing.T) {
	t.Parallel()
	store, err := statsout.NewSQLiteStatsStore(filepath.Join(t.TempDir(), "lectio.db"))
	if err != nil {
		t.Fatalf("open stats store: %v", err)
	}
	days, err := store.DailyTotals(context.Background())
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	if len(days) != 0 {
		t.Fatalf("expected no buckets, got %+v", days)
	}
	books, err := store.BookTotals(context.Background())
	if err != nil {
		t.Fatalf("book totals: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected no books, got %+v", books)
	}
}
