package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kotikvkofte/deal-service/internal/application/factories/infrastructure"
	"github.com/kotikvkofte/deal-service/internal/config"
	"github.com/kotikvkofte/deal-service/internal/consumer"
	"github.com/kotikvkofte/deal-service/internal/domain/event"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/rabbitmq"
	redisInfra "github.com/kotikvkofte/deal-service/internal/infrastructure/redis"
	"github.com/kotikvkofte/deal-service/internal/logging"
	"github.com/kotikvkofte/deal-service/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsAddr = ":9091"

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level).With("app", cfg.App.Name, "component", "consumer")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Metrics Server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("Consumer metrics listening", "addr", metricsAddr)
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
	if err := postgres.EnsureSchema(ctx, pgPool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Redis is optional here: it only evicts cached deals.
	var cache usecase.Cache
	if redisClient, err := infraFactory.Redis(ctx); err != nil {
		logger.Warn("redis unavailable, deal cache will not be evicted", "error", err)
	} else {
		cache = redisInfra.NewCache(redisClient, "")
	}

	rabbit, err := infraFactory.RabbitMQ(ctx)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	if err := infraFactory.Topology().Declare(rabbit.Channel()); err != nil {
		logger.Error("failed to declare topology", "error", err)
		os.Exit(1)
	}

	inboxRepo := postgres.NewInboxRepository(pgPool)
	contractorRepo := postgres.NewContractorRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	handler := usecase.NewUpdateContractor(txManager, contractorRepo, cache, logger)

	opts := []consumer.Option{consumer.WithLogger(logger)}
	if sink := infraFactory.DeadLetterProducer(); sink != nil {
		opts = append(opts, consumer.WithDeadLetterSink(sink))
		logger.Info("abandoned messages will be published", "topic", sink.Topic())
	}

	dispatcher, err := consumer.NewDispatcher(consumer.Config{
		RetryThreshold: cfg.RabbitMQ.RetryThreshold,
		Kind:           event.ContractorUpdateKind,
	}, inboxRepo, handler, opts...)
	if err != nil {
		logger.Error("failed to build dispatcher", "error", err)
		os.Exit(1)
	}

	c := rabbitmq.NewConsumer(rabbit.Channel(), rabbitmq.ConsumerConfig{
		Queue:        cfg.RabbitMQ.Queues.Main,
		ParkingQueue: cfg.RabbitMQ.Queues.Parking,
		Tag:          cfg.RabbitMQ.ConsumerTag,
		Prefetch:     cfg.RabbitMQ.Prefetch,
	}, dispatcher, logger)

	// A dropped connection ends the process so the orchestrator restarts it.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case amqpErr := <-rabbit.NotifyClose():
			if amqpErr != nil {
				logger.Error("rabbitmq connection closed", "error", amqpErr)
			}
			stop()
		case <-runCtx.Done():
		}
	}()

	err = c.Run(runCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped with error", "error", err)
		infraFactory.Close()
		os.Exit(1)
	}
	if ctx.Err() == nil {
		logger.Error("consumer stopped unexpectedly")
		infraFactory.Close()
		os.Exit(1)
	}

	logger.Info("consumer exited")
}
