package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"watchlog/internal/database"
	"watchlog/models"
	"watchlog/services/entries"
)

type entriesService interface {
	List(ctx context.Context) ([]models.WatchEntry, error)
	Get(ctx context.Context, id string) (models.WatchEntry, error)
	Create(ctx context.Context, input models.WatchEntryInput) (models.WatchEntry, error)
	Update(ctx context.Context, id string, input models.WatchEntryInput) (models.WatchEntry, error)
	Delete(ctx context.Context, id string) error
}

// seasonSeeder refreshes the new-season baseline for a series entry.
type seasonSeeder interface {
	ScheduleSeed(tmdbID int64, seriesName string)
}

var _ entriesService = (*entries.Service)(nil)

type EntriesHandler struct {
	Service entriesService
	Seeder  seasonSeeder
}

func NewEntriesHandler(service entriesService, seeder seasonSeeder) *EntriesHandler {
	return &EntriesHandler{Service: service, Seeder: seeder}
}

func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeEntriesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeEntriesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.WatchEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeEntriesError(w, err)
		return
	}

	h.seedTracker(entry)
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	var input models.WatchEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		writeEntriesError(w, err)
		return
	}

	h.seedTracker(entry)
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "entry id is required", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeEntriesError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seedTracker queues a baseline refresh when a series entry carries an
// external id, so a newly logged series is polled without waiting for the
// next full pass.
func (h *EntriesHandler) seedTracker(entry models.WatchEntry) {
	if h.Seeder == nil || !entry.IsSeries() || entry.TMDBID == 0 {
		return
	}
	h.Seeder.ScheduleSeed(entry.TMDBID, entry.Title)
}

func writeEntriesError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entries.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entries.ErrTitleRequired),
		errors.Is(err, entries.ErrWatchDateRequired),
		errors.Is(err, entries.ErrInvalidWatchDate),
		errors.Is(err, entries.ErrInvalidKind),
		errors.Is(err, entries.ErrInvalidStatus),
		errors.Is(err, entries.ErrInvalidRating):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrPermission):
		http.Error(w, "storage access denied: check that the database file and its directory are writable by the server process", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
