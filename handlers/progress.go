package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"watchlog/internal/database"
	"watchlog/models"
	"watchlog/services/progress"
)

type progressService interface {
	SetSeasonSeen(ctx context.Context, seriesID int64, seasonNumber int, seen bool) error
	SetEpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int, seen bool) error
	AllSeenSeasons(ctx context.Context, seriesID int64) (map[int]bool, error)
	AllSeenEpisodes(ctx context.Context, seriesID int64) (map[int]map[int]bool, error)
	Progress(ctx context.Context, seriesID int64) (models.SeriesProgress, error)
}

var _ progressService = (*progress.Service)(nil)

type ProgressHandler struct {
	Service progressService
}

func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{Service: service}
}

type seenPayload struct {
	Seen bool `json:"seen"`
}

// Overview returns seen maps and the completion percentage for one series.
func (h *ProgressHandler) Overview(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}

	seasons, err := h.Service.AllSeenSeasons(r.Context(), seriesID)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	episodes, err := h.Service.AllSeenEpisodes(r.Context(), seriesID)
	if err != nil {
		writeProgressError(w, err)
		return
	}

	response := struct {
		Seasons  map[int]bool         `json:"seasons"`
		Episodes map[int]map[int]bool `json:"episodes"`
		Progress any                  `json:"progress,omitempty"`
	}{Seasons: seasons, Episodes: episodes}

	// Percentage needs live metadata; absence of it should not hide the
	// stored seen-maps.
	if prog, err := h.Service.Progress(r.Context(), seriesID); err == nil {
		response.Progress = prog
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *ProgressHandler) SetSeasonSeen(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}
	seasonNumber, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil {
		http.Error(w, "invalid season number", http.StatusBadRequest)
		return
	}

	var payload seenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.SetSeasonSeen(r.Context(), seriesID, seasonNumber, payload.Seen); err != nil {
		writeProgressError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seen": payload.Seen})
}

func (h *ProgressHandler) SetEpisodeSeen(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	seasonNumber, err := strconv.Atoi(vars["season"])
	if err != nil {
		http.Error(w, "invalid season number", http.StatusBadRequest)
		return
	}
	episodeNumber, err := strconv.Atoi(vars["episode"])
	if err != nil {
		http.Error(w, "invalid episode number", http.StatusBadRequest)
		return
	}

	var payload seenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.SetEpisodeSeen(r.Context(), seriesID, seasonNumber, episodeNumber, payload.Seen); err != nil {
		writeProgressError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seen": payload.Seen})
}

func writeProgressError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progress.ErrInvalidSeason), errors.Is(err, progress.ErrInvalidEpisode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrPermission):
		http.Error(w, "storage access denied: check that the database file and its directory are writable by the server process", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
