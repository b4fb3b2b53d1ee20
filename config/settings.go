package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Metadata MetadataSettings `json:"metadata"`
	Cache    CacheSettings    `json:"cache"`
	Database DatabaseSettings `json:"database"`
	Auth     AuthSettings     `json:"auth"`
	Timing   TimingSettings   `json:"timing"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	PublicURL string `json:"publicUrl"` // external base URL used for OIDC redirects
}

// MetadataSettings configures the TMDB gateway. A missing API key is a fatal
// configuration error surfaced by the metadata service, not a network error.
type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
}

type CacheSettings struct {
	Directory string `json:"directory"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// AuthSettings configures the OIDC login flow. SessionSecret signs and
// encrypts the cookie-backed session.
type AuthSettings struct {
	IssuerURL     string `json:"issuerUrl"`
	ClientID      string `json:"clientId"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	SessionSecret string `json:"sessionSecret"`
}

// TimingSettings holds the tunable delays. They are configuration, not magic
// numbers, so deployments can adjust them without a rebuild.
type TimingSettings struct {
	SearchDebounceMs      int `json:"searchDebounceMs"`      // quiet period before a type-ahead search fires
	PollDelayMs           int `json:"pollDelayMs"`           // pause between per-series metadata requests
	MetadataTTLMinutes    int `json:"metadataTtlMinutes"`    // in-memory metadata cache lifetime
	PollIntervalMinutes   int `json:"pollIntervalMinutes"`   // background new-season pass cadence (0 disables)
	SeedDebounceMs        int `json:"seedDebounceMs"`        // quiet period that coalesces baseline seeding after edits
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8484,
		},
		Metadata: MetadataSettings{
			Language: "en-US",
		},
		Cache: CacheSettings{
			Directory: "cache",
		},
		Database: DatabaseSettings{
			Path: filepath.Join("cache", "watchlog.db"),
		},
		Auth: AuthSettings{
			IssuerURL: "https://replit.com/oidc",
		},
		Timing: TimingSettings{
			SearchDebounceMs:    300,
			PollDelayMs:         200,
			MetadataTTLMinutes:  5,
			PollIntervalMinutes: 360,
			SeedDebounceMs:      300,
		},
		Log: LogConfig{
			File:       filepath.Join("cache", "logs", "watchlog.log"),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for settings introduced after the config was written.
	defaults := DefaultSettings()
	if s.Timing.SearchDebounceMs <= 0 {
		s.Timing.SearchDebounceMs = defaults.Timing.SearchDebounceMs
	}
	if s.Timing.PollDelayMs <= 0 {
		s.Timing.PollDelayMs = defaults.Timing.PollDelayMs
	}
	if s.Timing.MetadataTTLMinutes <= 0 {
		s.Timing.MetadataTTLMinutes = defaults.Timing.MetadataTTLMinutes
	}
	if s.Timing.SeedDebounceMs <= 0 {
		s.Timing.SeedDebounceMs = defaults.Timing.SeedDebounceMs
	}
	if strings.TrimSpace(s.Cache.Directory) == "" {
		s.Cache.Directory = defaults.Cache.Directory
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}
	if strings.TrimSpace(s.Metadata.Language) == "" {
		s.Metadata.Language = defaults.Metadata.Language
	}
	if strings.TrimSpace(s.Auth.IssuerURL) == "" {
		s.Auth.IssuerURL = defaults.Auth.IssuerURL
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
