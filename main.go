package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"watchlog/api"
	"watchlog/config"
	"watchlog/handlers"
	"watchlog/internal/database"
	"watchlog/services/auth"
	"watchlog/services/entries"
	"watchlog/services/library"
	"watchlog/services/metadata"
	"watchlog/services/progress"
	"watchlog/services/seasoncheck"
	"watchlog/services/tracker"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("watchlog backend starting...")

	configPath := os.Getenv("WATCHLOG_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Storage
	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	entryRepo := database.NewEntryRepository(db.Connection())
	progressRepo := database.NewProgressRepository(db.Connection())
	userRepo := database.NewUserRepository(db.Connection())

	// Device-local stores
	localFs := afero.NewOsFs()
	baselines := tracker.NewBaselineStore(localFs, settings.Cache.Directory)
	dismissals := tracker.NewDismissalStore(localFs, settings.Cache.Directory)

	// Services
	metadataSvc := metadata.NewService(
		settings.Metadata.TMDBAPIKey,
		settings.Metadata.Language,
		time.Duration(settings.Timing.MetadataTTLMinutes)*time.Minute,
	)
	if !metadataSvc.Configured() {
		log.Println("Warning: TMDB API key not configured, metadata features disabled")
	}

	entriesSvc := entries.NewService(entryRepo)
	librarySvc := library.NewService()
	progressSvc := progress.NewService(progressRepo, metadataSvc)
	checkerSvc := seasoncheck.NewService(
		metadataSvc,
		baselines,
		dismissals,
		time.Duration(settings.Timing.PollDelayMs)*time.Millisecond,
		time.Duration(settings.Timing.PollIntervalMinutes)*time.Minute,
		time.Duration(settings.Timing.SeedDebounceMs)*time.Millisecond,
	)

	publicURL := settings.Server.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", settings.Server.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authSvc, err := auth.NewService(ctx, settings.Auth, publicURL, userRepo)
	if err != nil {
		log.Fatalf("failed to set up auth: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	entriesHandler := handlers.NewEntriesHandler(entriesSvc, checkerSvc)
	metadataHandler := handlers.NewMetadataHandler(metadataSvc)
	libraryHandler := handlers.NewLibraryHandler(librarySvc, entriesSvc)
	progressHandler := handlers.NewProgressHandler(progressSvc)
	alertsHandler := handlers.NewAlertsHandler(checkerSvc, dismissals, baselines)
	settingsHandler := handlers.NewSettingsHandler(cfgManager, metadataSvc)

	r := mux.NewRouter()
	api.Register(r, authSvc, authHandler, entriesHandler, metadataHandler,
		libraryHandler, progressHandler, alertsHandler, settingsHandler)

	// Background new-season polling. The first pass runs right after startup
	// so freshly tracked series get checked without waiting a full interval.
	if settings.Timing.PollIntervalMinutes > 0 && metadataSvc.Configured() {
		if err := checkerSvc.Start(ctx); err != nil {
			log.Printf("failed to start season check loop: %v", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := checkerSvc.Stop(shutdownCtx); err != nil {
		log.Printf("Season check shutdown error: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
