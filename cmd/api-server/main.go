package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carewise/patient-flow/internal/admission"
	"github.com/carewise/patient-flow/internal/api"
	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/config"
	"github.com/carewise/patient-flow/internal/db"
	redisclient "github.com/carewise/patient-flow/internal/redis"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

const version = "0.1.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	sink := audit.NewPgSink(pgPool, logger)
	directory := registry.NewPgDirectory(pgPool)

	ruleRepo := schedule.NewPgRepository(pgPool)
	ruleSvc := schedule.NewService(ruleRepo, sink)

	apptRepo := appointment.NewPgRepository(pgPool)
	engine := appointment.NewEngine(ruleRepo, apptRepo, cfg.SlotStep, cfg.AltScanDays, cfg.AltMax)
	apptSvc := appointment.NewService(apptRepo, engine, directory, locker, sink, cfg, logger)

	admissionRepo := admission.NewPgRepository(pgPool)
	admissionSvc := admission.NewService(admissionRepo, directory, locker, sink, logger)

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Admissions:   admissionSvc,
		Schedules:    ruleSvc,
		Registry:     directory,
		PgPool:       pgPool,
		Redis:        rdb,
		Log:          logger,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
