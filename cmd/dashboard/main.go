package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadlms/internal/admins"
	"leadlms/internal/config"
	"leadlms/internal/database"
	"leadlms/internal/email"
	"leadlms/internal/leads"
	"leadlms/internal/logger"
	"leadlms/internal/server"
	"leadlms/internal/session"
	"leadlms/internal/storage"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	// Initialize structured logger
	log := logger.New()
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("Starting lead dashboard",
		"env", cfg.Env,
		"port", cfg.Port,
		"email_mode", cfg.Email.Mode,
		"storage", cfg.Storage.Enabled(),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	db, err := database.New(startCtx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(startCtx, db); err != nil {
		log.Error("Failed to apply schema", "error", err)
		db.Close()
		os.Exit(1)
	}
	log.Info("Database ready")

	sessions := session.NewManager(
		session.NewPostgresStore(db),
		cfg.Session.Duration,
		session.WithLogger(log),
	)

	var objects storage.Service
	if cfg.Storage.Enabled() {
		objects, err = storage.New(startCtx, cfg.Storage, log)
		if err != nil {
			log.Warn("Failed to initialize storage, lead export disabled", "error", err)
			objects = nil
		} else if err := objects.EnsureBucketExists(startCtx); err != nil {
			log.Warn("Failed to ensure export bucket, lead export disabled", "error", err)
			objects = nil
		}
	}

	adminStore := admins.NewRepository(db)
	notifier := email.NewNotifier(
		email.NewSender(cfg.Email, log),
		adminStore,
		email.NotifierConfig{DashboardURL: cfg.DashboardURL},
		log,
	)

	leadOpts := []leads.Option{}
	if objects != nil {
		leadOpts = append(leadOpts, leads.WithObjectStore(objects))
	}
	leadService := leads.NewService(leads.NewRepository(db), notifier, log, leadOpts...)

	srv := server.New(server.Deps{
		Config:   cfg,
		DB:       db,
		Storage:  objects,
		Sessions: sessions,
		Leads:    leadService,
		Admins:   adminStore,
		Logger:   log,
	})
	httpServer, err := srv.HTTPServer()
	if err != nil {
		log.Error("Failed to build routes", "error", err)
		db.Close()
		os.Exit(1)
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	if cfg.Session.SweepInterval > 0 {
		go func() {
			defer close(sweeperDone)
			session.RunSweeper(sweepCtx, sessions, cfg.Session.SweepInterval, log)
		}()
	} else {
		close(sweeperDone)
	}

	// Start server in a goroutine
	go func() {
		log.Info("Lead dashboard listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down lead dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	stopSweeper()
	<-sweeperDone

	if err := notifier.Wait(ctx); err != nil {
		log.Warn("Pending notifications abandoned", "error", err)
	}

	db.Close()
	log.Info("Lead dashboard stopped")
}
