package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"watchlog/handlers"
)

// SessionChecker reports whether a request carries a logged-in session.
type SessionChecker interface {
	LoggedIn(r *http.Request) bool
}

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireSession rejects unauthenticated requests. Auth endpoints register
// outside this middleware, everything else behind it.
func requireSession(checker SessionChecker) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if checker != nil && !checker.LoggedIn(r) {
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register wires every handler onto the router.
func Register(
	r *mux.Router,
	sessionChecker SessionChecker,
	authHandler *handlers.AuthHandler,
	entriesHandler *handlers.EntriesHandler,
	metadataHandler *handlers.MetadataHandler,
	libraryHandler *handlers.LibraryHandler,
	progressHandler *handlers.ProgressHandler,
	alertsHandler *handlers.AlertsHandler,
	settingsHandler *handlers.SettingsHandler,
) {
	// Auth endpoints stay reachable without a session.
	public := r.PathPrefix("/api").Subrouter()
	public.Use(corsMiddleware)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodGet)
	public.HandleFunc("/callback", authHandler.Callback).Methods(http.MethodGet)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet)
	public.HandleFunc("/auth/user", authHandler.User).Methods(http.MethodGet, http.MethodOptions)
	public.HandleFunc("/settings/client", settingsHandler.Client).Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.Use(requireSession(sessionChecker))

	// Watch entries
	api.HandleFunc("/entries", entriesHandler.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/entries", entriesHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/entries/{id}", entriesHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/entries/{id}", entriesHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/entries/{id}", entriesHandler.Delete).Methods(http.MethodDelete)

	// Metadata
	api.HandleFunc("/metadata/search", metadataHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/metadata/series/{id}", metadataHandler.SeriesDetails).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/metadata/series/{id}/season/{season}", metadataHandler.SeasonEpisodes).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/metadata/series/{id}/full", metadataHandler.FullSeries).Methods(http.MethodGet, http.MethodOptions)

	// Library view and export
	api.HandleFunc("/library", libraryHandler.View).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/library/export", libraryHandler.Export).Methods(http.MethodGet, http.MethodOptions)

	// Season/episode progress
	api.HandleFunc("/progress/series/{id}", progressHandler.Overview).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/progress/series/{id}/season/{season}", progressHandler.SetSeasonSeen).Methods(http.MethodPut)
	api.HandleFunc("/progress/series/{id}/season/{season}/episode/{episode}", progressHandler.SetEpisodeSeen).Methods(http.MethodPut)

	// New-season alerts and trackers
	api.HandleFunc("/alerts", alertsHandler.List).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/alerts/check", alertsHandler.Check).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}/dismiss", alertsHandler.Dismiss).Methods(http.MethodPost)
	api.HandleFunc("/alerts/dismissals", alertsHandler.ClearDismissals).Methods(http.MethodDelete)
	api.HandleFunc("/trackers", alertsHandler.Trackers).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/trackers/{id}", alertsHandler.RemoveTracker).Methods(http.MethodDelete)

	// Settings
	api.HandleFunc("/settings", settingsHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/settings", settingsHandler.Update).Methods(http.MethodPut)
}
