package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"watchlog/config"
)

type fakeCache struct {
	cleared int
}

func (f *fakeCache) ClearCache() { f.cleared++ }

func newSettingsManager(t *testing.T) *config.Manager {
	t.Helper()
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))

	settings := config.DefaultSettings()
	settings.Server.Host = "127.0.0.1"
	settings.Server.Port = 9090
	settings.Log.File = "custom/watchlog.log"
	settings.Metadata.TMDBAPIKey = "stored-key"
	settings.Auth.SessionSecret = "stored-session"
	settings.Auth.ClientSecret = "stored-client"
	if err := manager.Save(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	return manager
}

func TestSettingsUpdatePartialPayloadKeepsStoredFields(t *testing.T) {
	manager := newSettingsManager(t)
	cache := &fakeCache{}
	handler := NewSettingsHandler(manager, cache)

	body := `{"timing":{"searchDebounceMs":150}}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	saved, err := manager.Load()
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if saved.Timing.SearchDebounceMs != 150 {
		t.Fatalf("expected debounce 150, got %d", saved.Timing.SearchDebounceMs)
	}
	if saved.Server.Host != "127.0.0.1" || saved.Server.Port != 9090 {
		t.Fatalf("server settings not preserved: %+v", saved.Server)
	}
	if saved.Log.File != "custom/watchlog.log" {
		t.Fatalf("log settings not preserved: %+v", saved.Log)
	}
	if saved.Metadata.TMDBAPIKey != "stored-key" {
		t.Fatalf("tmdb key not preserved: %q", saved.Metadata.TMDBAPIKey)
	}
	if cache.cleared != 0 {
		t.Fatalf("cache cleared without key change")
	}
}

func TestSettingsUpdateBlankSecretsKeepStoredValues(t *testing.T) {
	manager := newSettingsManager(t)
	handler := NewSettingsHandler(manager, &fakeCache{})

	// A round-tripped Get payload carries explicit empty secrets.
	body := `{"metadata":{"tmdbApiKey":""},"auth":{"sessionSecret":"","clientSecret":""}}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	saved, err := manager.Load()
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if saved.Metadata.TMDBAPIKey != "stored-key" {
		t.Fatalf("tmdb key wiped: %q", saved.Metadata.TMDBAPIKey)
	}
	if saved.Auth.SessionSecret != "stored-session" || saved.Auth.ClientSecret != "stored-client" {
		t.Fatalf("auth secrets wiped: %+v", saved.Auth)
	}
}

func TestSettingsUpdateKeyChangeClearsMetadataCache(t *testing.T) {
	manager := newSettingsManager(t)
	cache := &fakeCache{}
	handler := NewSettingsHandler(manager, cache)

	body := `{"metadata":{"tmdbApiKey":"rotated-key"}}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if cache.cleared != 1 {
		t.Fatalf("expected cache cleared once, got %d", cache.cleared)
	}
}
