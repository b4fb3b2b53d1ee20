package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"watchlog/models"
	"watchlog/services/library"
)

type libraryService interface {
	View(entries []models.WatchEntry, filters library.Filters, sortBy library.Sort) (models.LibraryView, error)
	ExportCSV(entries []models.WatchEntry) ([]byte, error)
}

var _ libraryService = (*library.Service)(nil)

type LibraryHandler struct {
	Library libraryService
	Entries entriesService
}

func NewLibraryHandler(lib libraryService, entries entriesService) *LibraryHandler {
	return &LibraryHandler{Library: lib, Entries: entries}
}

// View returns the grouped library: standalone movies plus series groups.
// Query params: q, kind, platform, status, sort (date|rating|title), order
// (asc|desc).
func (h *LibraryHandler) View(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Entries.List(r.Context())
	if err != nil {
		writeEntriesError(w, err)
		return
	}

	q := r.URL.Query()
	filters := library.Filters{
		TitleQuery: q.Get("q"),
		Kind:       models.EntryKind(q.Get("kind")),
		Platform:   q.Get("platform"),
		Status:     models.EntryStatus(q.Get("status")),
	}
	sortBy := library.Sort{
		Field:      library.SortField(q.Get("sort")),
		Descending: q.Get("order") == "desc" || q.Get("sort") == "",
	}

	view, err := h.Library.View(entries, filters, sortBy)
	if err != nil {
		if errors.Is(err, library.ErrInvalidSort) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Export streams the full entry log as a CSV download.
func (h *LibraryHandler) Export(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Entries.List(r.Context())
	if err != nil {
		writeEntriesError(w, err)
		return
	}

	data, err := h.Library.ExportCSV(entries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := library.ExportFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
