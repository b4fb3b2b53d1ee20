package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"watchlog/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "watchlog.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEntryRoundTripPreservesOptionalAbsence(t *testing.T) {
	db := openTestDB(t)
	repo := NewEntryRepository(db.Connection())
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	entry := models.WatchEntry{
		ID:        "entry-1",
		Title:     "Dune",
		WatchDate: "2025-02-01",
		Kind:      models.EntryKindMovie,
		Rating:    4,
		Status:    models.EntryStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, found, err := repo.Get(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !found {
		t.Fatalf("entry not found after insert")
	}

	if got.Title != "Dune" || got.WatchDate != "2025-02-01" || got.Rating != 4 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	// Optional fields that were never set come back zero, not as empty markers.
	if got.Platform != "" || got.Notes != "" || got.Season != 0 || got.TMDBID != 0 {
		t.Fatalf("optional fields should be absent: %+v", got)
	}
	if got.Genres != nil {
		t.Fatalf("expected nil genres, got %v", got.Genres)
	}
}

func TestEntryListOrdersByWatchDateDesc(t *testing.T) {
	db := openTestDB(t)
	repo := NewEntryRepository(db.Connection())
	ctx := context.Background()

	now := time.Now().UTC()
	for i, date := range []string{"2025-01-01", "2025-03-01", "2025-02-01"} {
		entry := models.WatchEntry{
			ID:        "entry-" + date,
			Title:     "Movie",
			WatchDate: date,
			Kind:      models.EntryKindMovie,
			Status:    models.EntryStatusCompleted,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}
		if err := repo.Insert(ctx, entry); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	if list[0].WatchDate != "2025-03-01" || list[2].WatchDate != "2025-01-01" {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].WatchDate, list[1].WatchDate, list[2].WatchDate)
	}
}

func TestEntryUpdateAndDeleteReportMisses(t *testing.T) {
	db := openTestDB(t)
	repo := NewEntryRepository(db.Connection())
	ctx := context.Background()

	updated, err := repo.Update(ctx, models.WatchEntry{ID: "ghost", Title: "x", WatchDate: "2025-01-01", Kind: models.EntryKindMovie, Status: models.EntryStatusCompleted})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated {
		t.Fatalf("expected no rows updated for missing id")
	}

	deleted, err := repo.Delete(ctx, "ghost")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted {
		t.Fatalf("expected no rows deleted for missing id")
	}
}

func TestProgressUpsertTogglesSingleRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgressRepository(db.Connection())
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.SetSeasonSeen(ctx, 100, 1, true, now); err != nil {
		t.Fatalf("set season failed: %v", err)
	}
	if err := repo.SetSeasonSeen(ctx, 100, 2, true, now); err != nil {
		t.Fatalf("set season failed: %v", err)
	}
	if err := repo.SetSeasonSeen(ctx, 100, 1, false, now.Add(time.Second)); err != nil {
		t.Fatalf("toggle season failed: %v", err)
	}

	seen, err := repo.SeasonSeen(ctx, 100, 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if seen {
		t.Fatalf("season 1 should be unseen after toggle")
	}

	all, err := repo.AllSeenSeasons(ctx, 100)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !all[2].Seen {
		t.Fatalf("season 2 state clobbered by sibling toggle")
	}

	// Absent rows read as unseen, not as errors.
	seen, err = repo.SeasonSeen(ctx, 100, 99)
	if err != nil || seen {
		t.Fatalf("expected absent season to be unseen, got %v, %v", seen, err)
	}
}

func TestUserUpsertRefreshesClaims(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db.Connection())
	ctx := context.Background()

	first, err := repo.Upsert(ctx, models.User{ID: "sub-1", Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	second, err := repo.Upsert(ctx, models.User{ID: "sub-1", Email: "b@example.com", Name: "B"})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.Email != "b@example.com" || second.Name != "B" {
		t.Fatalf("claims not refreshed: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created-at should survive upsert")
	}
}
