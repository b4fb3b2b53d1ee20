package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"watchlog/models"
	"watchlog/services/entries"
)

type fakeEntriesService struct {
	listResult   []models.WatchEntry
	getResult    models.WatchEntry
	getErr       error
	createResult models.WatchEntry
	createErr    error
	deleteErr    error
}

func (f *fakeEntriesService) List(ctx context.Context) ([]models.WatchEntry, error) {
	return f.listResult, nil
}

func (f *fakeEntriesService) Get(ctx context.Context, id string) (models.WatchEntry, error) {
	return f.getResult, f.getErr
}

func (f *fakeEntriesService) Create(ctx context.Context, input models.WatchEntryInput) (models.WatchEntry, error) {
	if f.createErr != nil {
		return models.WatchEntry{}, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeEntriesService) Update(ctx context.Context, id string, input models.WatchEntryInput) (models.WatchEntry, error) {
	return f.createResult, f.createErr
}

func (f *fakeEntriesService) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

type fakeSeeder struct {
	seeded []int64
}

func (f *fakeSeeder) ScheduleSeed(tmdbID int64, seriesName string) {
	f.seeded = append(f.seeded, tmdbID)
}

func TestEntriesCreateSeedsSeriesTracker(t *testing.T) {
	seeder := &fakeSeeder{}
	handler := NewEntriesHandler(&fakeEntriesService{
		createResult: models.WatchEntry{
			ID:     "abc",
			Title:  "Severance",
			Kind:   models.EntryKindSeries,
			TMDBID: 95396,
		},
	}, seeder)

	body := strings.NewReader(`{"title":"Severance","watchDate":"2025-02-14","kind":"series","tmdbId":95396}`)
	req := httptest.NewRequest(http.MethodPost, "/api/entries", body)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(seeder.seeded) != 1 || seeder.seeded[0] != 95396 {
		t.Fatalf("expected tracker seed for 95396, got %v", seeder.seeded)
	}
}

func TestEntriesCreateMovieDoesNotSeed(t *testing.T) {
	seeder := &fakeSeeder{}
	handler := NewEntriesHandler(&fakeEntriesService{
		createResult: models.WatchEntry{ID: "abc", Title: "Dune", Kind: models.EntryKindMovie, TMDBID: 438631},
	}, seeder)

	body := strings.NewReader(`{"title":"Dune","watchDate":"2025-02-14","kind":"movie"}`)
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/entries", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(seeder.seeded) != 0 {
		t.Fatalf("expected no tracker seed for a movie, got %v", seeder.seeded)
	}
}

func TestEntriesCreateValidationError(t *testing.T) {
	handler := NewEntriesHandler(&fakeEntriesService{createErr: entries.ErrTitleRequired}, nil)

	body := strings.NewReader(`{"watchDate":"2025-02-14","kind":"movie"}`)
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/entries", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntriesGetNotFound(t *testing.T) {
	handler := NewEntriesHandler(&fakeEntriesService{getErr: entries.ErrEntryNotFound}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entries/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEntriesListReturnsJSON(t *testing.T) {
	handler := NewEntriesHandler(&fakeEntriesService{
		listResult: []models.WatchEntry{{ID: "1", Title: "Dune", Kind: models.EntryKindMovie}},
	}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var got []models.WatchEntry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Dune" {
		t.Fatalf("unexpected response: %+v", got)
	}
}
