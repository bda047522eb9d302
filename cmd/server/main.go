// Command server runs the escrow backend: the HTTP API, the scheduled expiry
// sweep, and the supporting observability stack (zerolog, Prometheus, OTel).
//
// Configuration is environment-driven (see internal/config); a local .env file
// is honored in development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/servihub/go-escrow-backend/docs"
	"github.com/servihub/go-escrow-backend/internal/config"
	httpapi "github.com/servihub/go-escrow-backend/internal/http"
	"github.com/servihub/go-escrow-backend/internal/observability"
	"github.com/servihub/go-escrow-backend/internal/repo"
	"github.com/servihub/go-escrow-backend/internal/services"
	"github.com/servihub/go-escrow-backend/internal/sysutil"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title        ServiHub Escrow API
// @version      1.0
// @description  Escrow payment lifecycle for a services marketplace: requests, confirmations, and timeout-based auto-release.
// @BasePath     /api/v1
func main() {
	// Local development convenience; absent files are not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// HTTP surface.
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	// Scheduled expiry sweep. SWEEP_INTERVAL=0 disables it (the admin
	// endpoint remains available for manual runs).
	var sched *cron.Cron
	if cfg.SweepInterval > 0 {
		sweep := services.NewSweepService(db)
		sched = cron.New()
		if _, err := sched.AddFunc("@every "+cfg.SweepInterval.String(), func() {
			runCtx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
			defer cancel()
			if _, err := sweep.Run(runCtx); err != nil {
				log.Error().Err(err).Msg("scheduled sweep failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("schedule sweep failed")
		}
		sched.Start()
		log.Info().Dur("interval", cfg.SweepInterval).Msg("expiry sweep scheduled")
	} else {
		log.Warn().Msg("expiry sweep disabled; payments will only release on manual sweep or client confirmation")
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if sched != nil {
		// Wait for an in-flight sweep to finish before closing the DB.
		<-sched.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("bye")
}
