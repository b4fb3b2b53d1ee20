package handlers

import (
	"encoding/json"
	"net/http"

	"watchlog/config"
)

type metadataCache interface {
	ClearCache()
}

type SettingsHandler struct {
	Config   *config.Manager
	Metadata metadataCache
}

func NewSettingsHandler(manager *config.Manager, metadata metadataCache) *SettingsHandler {
	return &SettingsHandler{Config: manager, Metadata: metadata}
}

// Client returns the settings the frontend needs at startup.
func (h *SettingsHandler) Client(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Config.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"searchDebounceMs": settings.Timing.SearchDebounceMs,
		"tmdbConfigured":   settings.Metadata.TMDBAPIKey != "",
	})
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Config.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Secrets never leave the server.
	settings.Auth.SessionSecret = ""
	settings.Auth.ClientSecret = ""
	settings.Metadata.TMDBAPIKey = ""

	writeJSON(w, http.StatusOK, settings)
}

// Update merges the posted settings over the stored ones. The body is
// decoded on top of the current settings, so fields absent from the
// payload keep their stored values. Blank secret fields also keep their
// stored values so a round-tripped Get payload cannot wipe credentials.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.Config.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	incoming := current
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if incoming.Metadata.TMDBAPIKey == "" {
		incoming.Metadata.TMDBAPIKey = current.Metadata.TMDBAPIKey
	}
	if incoming.Auth.SessionSecret == "" {
		incoming.Auth.SessionSecret = current.Auth.SessionSecret
	}
	if incoming.Auth.ClientSecret == "" {
		incoming.Auth.ClientSecret = current.Auth.ClientSecret
	}

	if err := h.Config.Save(incoming); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.Metadata != nil && incoming.Metadata.TMDBAPIKey != current.Metadata.TMDBAPIKey {
		h.Metadata.ClearCache()
	}

	w.WriteHeader(http.StatusNoContent)
}
