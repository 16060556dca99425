package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voicehost/internal/bootstrap"
	"voicehost/internal/generation"
	"voicehost/internal/http/handlers"
	httpapi "voicehost/internal/http/httpapi"
	"voicehost/internal/infra"
)

func main() {
	// Optional .env for local runs.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to start")
	}
	defer svc.Close()

	recoverer, err := generation.NewRecoverer(generation.RecovererOptions{
		Resumer: svc.Orchestrator,
		Ledger:  svc.Orphans,
		Workers: cfg.RecoveryWorkers,
		Timeout: cfg.RecoveryTimeout,
		Metrics: svc.Metrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to start recovery pool")
	}
	svc.Orchestrator.SetHandoff(recoverer)

	app := &handlers.App{
		Config:     cfg,
		Logger:     logger,
		Generator:  svc.Orchestrator,
		AudioFiles: svc.AudioFiles,
		Templates:  svc.Templates,
		Objects:    svc.Objects,
		Voices:     svc.Voices,
		Metrics:    svc.Metrics,
		Ping:       svc.Ping,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app), logger)
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("api: http server failed")
	}

	if running := recoverer.Running(); running > 0 {
		logger.Info().Int("running", running).Msg("api: waiting for in-flight recoveries")
	}
	if err := recoverer.Close(30 * time.Second); err != nil {
		logger.Warn().Err(err).Msg("api: recoveries still running at shutdown were abandoned")
	}
	logger.Info().Msg("api: stopped")
}
