package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adscope/adscope/internal/advisor"
	"github.com/adscope/adscope/internal/analysis"
	"github.com/adscope/adscope/internal/api"
	"github.com/adscope/adscope/internal/audit"
	"github.com/adscope/adscope/internal/auth"
	"github.com/adscope/adscope/internal/cache"
	"github.com/adscope/adscope/internal/config"
	"github.com/adscope/adscope/internal/database"
	"github.com/adscope/adscope/internal/ingestion"
	"github.com/adscope/adscope/internal/logging"
	"github.com/adscope/adscope/internal/metrics"
	"github.com/adscope/adscope/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting adscope")

	// Persistence is optional. Without DATABASE_URL audits are served from
	// the in-process run and the on-disk cache only.
	var repo audit.Repository
	var db *sql.DB
	if cfg.Database.URL != "" {
		logger.Info("connecting to database")
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.Database.URL
		db, err = database.Connect(context.Background(), dbCfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("database connected")

		if err := database.RunMigrations(db, "./migrations", logger); err != nil {
			logger.Warn("failed to run migrations, continuing anyway", "error", err)
		}

		repo = database.NewAuditRepository(db)
	} else {
		logger.Info("DATABASE_URL not set, audit persistence disabled")
	}

	store, err := cache.NewStore(cfg.Cache.Dir, logger)
	if err != nil {
		logger.Error("failed to init audit cache", "error", err)
		os.Exit(1)
	}
	if cfg.Cache.RetentionDays > 0 {
		maxAge := time.Duration(cfg.Cache.RetentionDays) * 24 * time.Hour
		if _, err := store.Prune(maxAge); err != nil {
			logger.Warn("cache retention sweep failed", "error", err)
		}
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis, logger)
	if err != nil {
		logger.Error("failed to init analyzer", "error", err)
		os.Exit(1)
	}

	adv, err := advisor.New(cfg.Advisor, logger)
	if err != nil {
		logger.Error("failed to init advisor", "error", err)
		os.Exit(1)
	}
	if adv != nil {
		logger.Info("AI advisor enabled", "provider", cfg.Advisor.Provider, "model", cfg.Advisor.Model)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	service := audit.NewService(
		ingestion.NewNormalizer(logger),
		analyzer,
		store,
		repo,
		adv,
		collector,
		logger,
	)

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"adscope","status":"ready","version":"0.1.0"}`))
	})

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	api.SetupRoutes(mux, service, repo, db, authConfig, logger)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("adscope started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
