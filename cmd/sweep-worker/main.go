package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carewise/patient-flow/internal/appointment"
	"github.com/carewise/patient-flow/internal/audit"
	"github.com/carewise/patient-flow/internal/config"
	"github.com/carewise/patient-flow/internal/db"
	redisclient "github.com/carewise/patient-flow/internal/redis"
	"github.com/carewise/patient-flow/internal/registry"
	"github.com/carewise/patient-flow/internal/schedule"
)

// The sweep worker cancels scheduled appointments whose date fell past the
// grace window without ever being started, so stale bookings stop holding
// capacity.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sweep-worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.SweepInterval).Msg("sweep-worker starting up")

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
	apptRepo := appointment.NewPgRepository(pgPool)
	engine := appointment.NewEngine(ruleRepo, apptRepo, cfg.SlotStep, cfg.AltScanDays, cfg.AltMax)
	svc := appointment.NewService(apptRepo, engine, directory, locker, sink, cfg, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping sweep worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	swept, err := svc.SweepOverdue(runCtx, time.Now().UTC())
	if err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}
	logger.Info().Int("swept", swept).Dur("took", time.Since(start)).Msg("sweep run complete")
}
