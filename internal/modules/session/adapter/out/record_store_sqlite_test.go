package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	out "lectio/internal/modules/session/adapter/out"
	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
	apperrors "lectio/internal/platform/errors"
)

func openRecordStore(t *testing.T) sessionout.RecordStore {
	t.Helper()
	store, err := out.NewSQLiteRecordStore(filepath.Join(t.TempDir(), "lectio.db"))
	if err != nil {
		t.Fatalf("open record store: %v", err)
	}
	return store
}

func completedRecord(id, bookID string, started time.Time) domain.Record {
	return domain.Record{
		ID:                 id,
		BookID:             bookID,
		BookTitle:          "Deep Work",
		StartedAt:          started,
		EndedAt:            started.Add(30 * time.Minute),
		ActiveMs:           1_500_000,
		CompletedPomodoros: 1,
		Highlights:         2,
		Notes:              1,
		AFKPauses:          1,
		MicrobreaksTaken:   1,
		Phase:              domain.PhaseCompleted,
	}
}

func TestRecordStoreSaveAndGet(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)
	want := completedRecord("se-1", "deep-work", time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC))

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(context.Background(), "se-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, want)
	}
}

func TestRecordStoreGetMissingReturnsNotFound(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)

	if _, err := store.Get(context.Background(), "se-missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordStoreSaveUpserts(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)
	started := time.Date(2026, 3, 9, 21, 0, 0, 0, time.UTC)
	initial := completedRecord("se-1", "deep-work", started)
	initial.Phase = domain.PhaseRunning
	initial.EndedAt = time.Time{}
	initial.ActiveMs = 10_000

	if err := store.Save(context.Background(), initial); err != nil {
		t.Fatalf("save initial: %v", err)
	}
	final := completedRecord("se-1", "deep-work", started)
	if err := store.Save(context.Background(), final); err != nil {
		t.Fatalf("save final: %v", err)
	}

	got, err := store.Get(context.Background(), "se-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Phase != domain.PhaseCompleted || got.ActiveMs != final.ActiveMs {
		t.Fatalf("expected final state to win: %+v", got)
	}
	all, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single row after upsert, got %d", len(all))
	}
}

func TestRecordStoreLatestPicksNewestCompleted(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)
	base := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	older := completedRecord("se-1", "deep-work", base)
	newer := completedRecord("se-2", "dune", base.Add(time.Hour))
	running := completedRecord("se-3", "dune", base.Add(2*time.Hour))
	running.Phase = domain.PhaseRunning
	running.EndedAt = time.Time{}
	for _, record := range []domain.Record{older, newer, running} {
		if err := store.Save(context.Background(), record); err != nil {
			t.Fatalf("save %s: %v", record.ID, err)
		}
	}

	got, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "se-2" {
		t.Fatalf("expected newest completed session, got %+v", got)
	}
}

func TestRecordStoreLatestEmptyReturnsNotFound(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)

	if _, err := store.Latest(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordStoreRecentOrdersByStart(t *testing.T) {
	t.Parallel()
	store := openRecordStore(t)
	base := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	for i, id := range []string{"se-1", "se-2", "se-3"} {
		record := completedRecord(id, "deep-work", base.Add(time.Duration(i)*time.Hour))
		if err := store.Save(context.Background(), record); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	records, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].ID != "se-3" || records[1].ID != "se-2" {
		t.Fatalf("expected newest first, got %+v", records)
	}
}
