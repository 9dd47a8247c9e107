package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kotikvkofte/deal-service/internal/consumer"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/semaphore"
)

var ErrDeliveriesClosed = errors.New("rabbitmq: delivery channel closed")

// ConsumeChannel is the subset of *amqp.Channel the consumer needs.
type ConsumeChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// DeliveryHandler settles one delivery. *consumer.Dispatcher implements it.
type DeliveryHandler interface {
	Handle(ctx context.Context, del consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error)
}

type ConsumerConfig struct {
	Queue string
	// ParkingQueue is the queue whose x-death entry counts redeliveries.
	ParkingQueue string
	Tag          string
	// Prefetch bounds both the broker QoS window and the number of concurrent workers.
	Prefetch int
}

type Consumer struct {
	ch      ConsumeChannel
	cfg     ConsumerConfig
	handler DeliveryHandler
	logger  *slog.Logger
}

func NewConsumer(ch ConsumeChannel, cfg ConsumerConfig, handler DeliveryHandler, logger *slog.Logger) *Consumer {
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{ch: ch, cfg: cfg, handler: handler, logger: logger}
}

// Run consumes with manual acknowledgment until ctx is cancelled or the broker
// closes the delivery channel. In-flight messages are finished before it returns.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := c.ch.Consume(c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	c.logger.Info("consumer started", "queue", c.cfg.Queue, "prefetch", c.cfg.Prefetch)

	// Workers keep going on shutdown so a started message is still settled.
	workCtx := context.WithoutCancel(ctx)
	sem := semaphore.NewWeighted(int64(c.cfg.Prefetch))
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			// Unsettled deliveries are returned to the queue when the channel closes.
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer sem.Release(1)
				c.handle(workCtx, d)
			}(d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	ack := &deliveryAck{d: d}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling delivery", "message_id", d.MessageId, "panic", r)
			// An unsettled delivery would hold its prefetch slot until the channel closes.
			if !ack.settled.Load() {
				if err := ack.Reject(); err != nil {
					c.logger.Error("failed to reject delivery after panic", "message_id", d.MessageId, "error", err)
				}
			}
		}
	}()

	del := consumer.Delivery{
		MessageID:  d.MessageId,
		Body:       d.Body,
		RetryCount: DeathCount(d.Headers, c.cfg.ParkingQueue),
	}

	outcome, err := c.handler.Handle(ctx, del, ack)
	if err != nil {
		c.logger.Error("failed to settle delivery", "message_id", d.MessageId, "outcome", outcome.String(), "error", err)
	}
}

type deliveryAck struct {
	d       amqp.Delivery
	settled atomic.Bool
}

func (a *deliveryAck) Ack() error {
	a.settled.Store(true)
	return a.d.Ack(false)
}

// Reject without requeue, so the queue's dead-letter exchange takes the message.
func (a *deliveryAck) Reject() error {
	a.settled.Store(true)
	return a.d.Reject(false)
}
