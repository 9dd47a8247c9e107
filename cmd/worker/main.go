package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kotikvkofte/deal-service/internal/application/factories/infrastructure"
	"github.com/kotikvkofte/deal-service/internal/config"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
	"github.com/kotikvkofte/deal-service/internal/logging"
	"github.com/kotikvkofte/deal-service/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsAddr = ":9093"

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level).With("app", cfg.App.Name, "component", "inbox-sweeper")
	slog.SetDefault(logger)

	if cfg.Inbox.Retention <= 0 {
		logger.Info("inbox retention disabled, nothing to do")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Worker metrics listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	sweeper, err := worker.NewInboxSweeper(postgres.NewInboxRepository(pgPool), worker.SweeperConfig{
		Retention: cfg.Inbox.Retention,
		Interval:  cfg.Inbox.SweepInterval,
		Batch:     cfg.Inbox.SweepBatch,
	}, logger)
	if err != nil {
		logger.Error("failed to build sweeper", "error", err)
		os.Exit(1)
	}

	if err := sweeper.Run(ctx); err != nil {
		logger.Error("worker stopped with error", "error", err)
	}

	logger.Info("worker exited")
}
