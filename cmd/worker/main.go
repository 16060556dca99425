package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"voicehost/internal/bootstrap"
	"voicehost/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to start")
	}
	defer svc.Close()

	if svc.Orphans == nil {
		logger.Fatal().Str("backend", cfg.MetadataBackend).Msg("worker: orphan reconciliation requires the postgres metadata backend")
	}

	w := &reconciler{
		ledger:   svc.Orphans,
		resumer:  svc.Orchestrator,
		logger:   logger,
		maxTries: cfg.OrphanMaxTries,
		timeout:  cfg.RecoveryTimeout,
		idle:     idleInterval,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
