package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"watchlog/models"
	"watchlog/services/seasoncheck"
	"watchlog/services/tracker"
)

type seasonCheckService interface {
	CheckAll(ctx context.Context) []models.NewSeasonAlert
	Alerts() []models.NewSeasonAlert
}

type dismissalStore interface {
	Dismiss(alertID string) error
	IsDismissed(alertID string) bool
	ClearAll() error
}

type baselineStore interface {
	All() []models.SeriesSeasonTracker
	Remove(tmdbID int64) error
}

var (
	_ seasonCheckService = (*seasoncheck.Service)(nil)
	_ dismissalStore     = (*tracker.DismissalStore)(nil)
	_ baselineStore      = (*tracker.BaselineStore)(nil)
)

type AlertsHandler struct {
	Checker    seasonCheckService
	Dismissals dismissalStore
	Baselines  baselineStore
}

func NewAlertsHandler(checker seasonCheckService, dismissals dismissalStore, baselines baselineStore) *AlertsHandler {
	return &AlertsHandler{Checker: checker, Dismissals: dismissals, Baselines: baselines}
}

// List returns current alerts with dismissed ones filtered out.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts := h.Checker.Alerts()
	if alerts == nil {
		alerts = []models.NewSeasonAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// Check runs a poll pass now and returns the alerts it emitted. An already
// running pass returns an empty list.
func (h *AlertsHandler) Check(w http.ResponseWriter, r *http.Request) {
	emitted := h.Checker.CheckAll(r.Context())
	if emitted == nil {
		emitted = []models.NewSeasonAlert{}
	}
	writeJSON(w, http.StatusOK, emitted)
}

func (h *AlertsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	alertID := strings.TrimSpace(mux.Vars(r)["id"])
	if alertID == "" {
		http.Error(w, "alert id is required", http.StatusBadRequest)
		return
	}

	if err := h.Dismissals.Dismiss(alertID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"dismissed": true})
}

func (h *AlertsHandler) ClearDismissals(w http.ResponseWriter, r *http.Request) {
	if err := h.Dismissals.ClearAll(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trackers lists the device-local season baselines.
func (h *AlertsHandler) Trackers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Baselines.All())
}

func (h *AlertsHandler) RemoveTracker(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || tmdbID <= 0 {
		http.Error(w, "invalid series id", http.StatusBadRequest)
		return
	}

	if err := h.Baselines.Remove(tmdbID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
