package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kotikvkofte/deal-service/internal/config"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/kafka"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/rabbitmq"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/redis"

	pgxpool "github.com/jackc/pgx/v5/pgxpool"
	go_redis "github.com/redis/go-redis/v9"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

type Factory struct {
	cfg      *config.Config
	pgPool   *pgxpool.Pool
	redisCli *go_redis.Client
	rabbit   *rabbitmq.Client
	deadProd *kafka.DeadLetterProducer
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		cfg: cfg,
	}
}

// retry calls connect until it succeeds, the attempts run out or ctx is done.
func retry(ctx context.Context, name string, connect func() error) error {
	var err error
	for i := 0; i < connectAttempts; i++ {
		if err = connect(); err == nil {
			return nil
		}
		slog.Warn("connection attempt failed", "target", name, "attempt", i+1, "max", connectAttempts, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	return err
}

func (f *Factory) Postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if f.pgPool != nil {
		return f.pgPool, nil
	}

	var pool *pgxpool.Pool
	err := retry(ctx, "postgres", func() error {
		var err error
		pool, err = postgres.NewClient(ctx, postgres.Config{
			Host:     f.cfg.Postgres.Host,
			Port:     f.cfg.Postgres.Port,
			User:     f.cfg.Postgres.User,
			Password: f.cfg.Postgres.Password,
			DBName:   f.cfg.Postgres.DBName,
			MaxConns: f.cfg.Postgres.MaxConns,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres after retries: %w", err)
	}

	f.pgPool = pool
	return pool, nil
}

func (f *Factory) Redis(ctx context.Context) (*go_redis.Client, error) {
	if f.redisCli != nil {
		return f.redisCli, nil
	}

	client, err := redis.NewClient(ctx, redis.Config{
		Addr:     f.cfg.Redis.Addr,
		Password: f.cfg.Redis.Password,
		DB:       f.cfg.Redis.DB,

		DialTimeout:  f.cfg.Redis.DialTimeout,
		ReadTimeout:  f.cfg.Redis.ReadTimeout,
		WriteTimeout: f.cfg.Redis.WriteTimeout,
		MaxRetries:   f.cfg.Redis.MaxRetries,
		PoolSize:     f.cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	f.redisCli = client
	return client, nil
}

func (f *Factory) RabbitMQ(ctx context.Context) (*rabbitmq.Client, error) {
	if f.rabbit != nil {
		return f.rabbit, nil
	}

	var client *rabbitmq.Client
	err := retry(ctx, "rabbitmq", func() error {
		var err error
		client, err = rabbitmq.NewClient(rabbitmq.Config{URL: f.cfg.RabbitMQ.URL})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init rabbitmq after retries: %w", err)
	}

	f.rabbit = client
	return client, nil
}

// Topology maps the rabbitmq config section onto the delayed-retry layout.
func (f *Factory) Topology() rabbitmq.Topology {
	r := f.cfg.RabbitMQ
	return rabbitmq.Topology{
		MainExchange:  r.Exchanges.Main,
		DeadExchange:  r.Exchanges.Dead,
		RetryExchange: r.Exchanges.Retry,
		MainQueue:     r.Queues.Main,
		ParkingQueue:  r.Queues.Parking,
		MainKey:       r.RoutingKeys.Main,
		DeadKey:       r.RoutingKeys.Dead,
		RetryKey:      r.RoutingKeys.Retry,
		ParkingTTL:    r.ParkingTTL,
	}
}

// DeadLetterProducer returns nil when no abandoned topic is configured.
func (f *Factory) DeadLetterProducer() *kafka.DeadLetterProducer {
	if f.cfg.Kafka.AbandonedTopic == "" {
		return nil
	}
	if f.deadProd == nil {
		f.deadProd = kafka.NewDeadLetterProducer(kafka.Config{
			Brokers: f.cfg.Kafka.Brokers,
			Topic:   f.cfg.Kafka.AbandonedTopic,
		})
	}
	return f.deadProd
}

func (f *Factory) Close() {
	if f.deadProd != nil {
		f.deadProd.Close()
	}
	if f.rabbit != nil {
		f.rabbit.Close()
	}
	if f.pgPool != nil {
		f.pgPool.Close()
	}
	if f.redisCli != nil {
		f.redisCli.Close()
	}
}
