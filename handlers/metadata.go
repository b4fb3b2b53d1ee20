package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"watchlog/models"
	"watchlog/services/metadata"
)

type metadataService interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	SeriesDetails(ctx context.Context, tmdbID int64) (models.SeriesDetails, error)
	SeasonEpisodes(ctx context.Context, tmdbID int64, seasonNumber int) (models.SeasonInfo, error)
	FullSeriesData(ctx context.Context, tmdbID int64) (models.FullSeriesData, error)
}

var _ metadataService = (*metadata.Service)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(service metadataService) *MetadataHandler {
	return &MetadataHandler{Service: service}
}

func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *MetadataHandler) SeriesDetails(w http.ResponseWriter, r *http.Request) {
	tmdbID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}

	details, err := h.Service.SeriesDetails(r.Context(), tmdbID)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *MetadataHandler) SeasonEpisodes(w http.ResponseWriter, r *http.Request) {
	tmdbID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}

	seasonNumber, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil || seasonNumber <= 0 {
		http.Error(w, "invalid season number", http.StatusBadRequest)
		return
	}

	season, err := h.Service.SeasonEpisodes(r.Context(), tmdbID, seasonNumber)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, season)
}

func (h *MetadataHandler) FullSeries(w http.ResponseWriter, r *http.Request) {
	tmdbID, ok := seriesIDVar(w, r)
	if !ok {
		return
	}

	full, err := h.Service.FullSeriesData(r.Context(), tmdbID)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

func seriesIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	tmdbID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || tmdbID <= 0 {
		http.Error(w, "invalid series id", http.StatusBadRequest)
		return 0, false
	}
	return tmdbID, true
}

func writeMetadataError(w http.ResponseWriter, err error) {
	if errors.Is(err, metadata.ErrAPIKeyMissing) {
		http.Error(w, "TMDB API key not configured: set it in settings before using metadata features", http.StatusServiceUnavailable)
		return
	}
	// Anything else is an upstream failure.
	http.Error(w, err.Error(), http.StatusBadGateway)
}
