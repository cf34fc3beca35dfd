// Package main is the entry point for the rental calendar sync server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rental-sync-manager/backend/internal/api"
	"github.com/rental-sync-manager/backend/internal/config"
	"github.com/rental-sync-manager/backend/internal/events"
	"github.com/rental-sync-manager/backend/internal/feed"
	"github.com/rental-sync-manager/backend/internal/logging"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/sync"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	cfg := config.Load()

	if err := logging.Init(cfg.AppEnv); err != nil {
		os.Exit(1)
	}
	defer logging.Close()

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	logging.Info("starting rental sync manager", "version", version, "env", cfg.AppEnv)

	// Initialize database
	dbPath := cfg.DataDir + "/rental-sync-manager.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		logging.Error("opening database failed", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		logging.Error("running migrations failed", "error", err)
		os.Exit(1)
	}
	logging.Info("database migrations complete")

	// Initialize WebSocket hub
	hub := events.NewHub()
	go hub.Run()
	broadcaster := events.NewBroadcaster(hub)

	// Initialize repositories
	propertyRepo := storage.NewPropertyRepository(db)
	sourceRepo := storage.NewCalendarSourceRepository(db)
	bookingRepo := storage.NewBookingRepository(db)
	conflictRepo := storage.NewConflictRepository(db)
	actionRepo := storage.NewSyncActionRepository(db)
	logRepo := storage.NewSyncLogRepository(db)

	// Initialize the sync pipeline
	client := feed.NewClient(cfg.FetchTimeout, cfg.FetchRetries, cfg.FetchRatePerSec, cfg.FeedCacheTTL)
	parser := feed.NewParser()
	reconciler := sync.NewReconciler(bookingRepo)
	detector := sync.NewDetector(bookingRepo, conflictRepo)
	generator := sync.NewGenerator(actionRepo, sourceRepo, cfg.BlockDismissHours, cfg.UnblockDismissHours)

	scheduler := sync.NewScheduler(sync.SchedulerDeps{
		Sources:    sourceRepo,
		Bookings:   bookingRepo,
		Logs:       logRepo,
		Actions:    actionRepo,
		Client:     client,
		Parser:     parser,
		Reconciler: reconciler,
		Detector:   detector,
		Generator:  generator,
		Notifier:   broadcaster,
	}, cfg.SyncIntervalMin, cfg.SweepIntervalMin, int64(cfg.MaxConcurrentProps))

	if err := scheduler.Start(); err != nil {
		logging.Error("starting scheduler failed", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP router
	router := api.NewRouter(db, api.Repositories{
		Properties: propertyRepo,
		Sources:    sourceRepo,
		Bookings:   bookingRepo,
		Conflicts:  conflictRepo,
		Actions:    actionRepo,
		Logs:       logRepo,
	}, hub, scheduler, cfg.StaticDir)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logging.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down server")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logging.Info("server stopped")
}
