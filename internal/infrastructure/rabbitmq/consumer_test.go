package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kotikvkofte/deal-service/internal/consumer"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelStub struct {
	deliveries chan amqp.Delivery
	prefetch   int
	autoAck    bool
}

func (c *channelStub) Qos(prefetchCount, _ int, _ bool) error {
	c.prefetch = prefetchCount
	return nil
}

func (c *channelStub) Consume(_, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.autoAck = autoAck
	return c.deliveries, nil
}

type brokerAck struct {
	mu       sync.Mutex
	acked    []uint64
	rejected []uint64
	requeued bool
}

func (b *brokerAck) Ack(tag uint64, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, tag)
	return nil
}

func (b *brokerAck) Nack(tag uint64, _ bool, requeue bool) error {
	return errors.New("nack not expected")
}

func (b *brokerAck) Reject(tag uint64, requeue bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected = append(b.rejected, tag)
	b.requeued = b.requeued || requeue
	return nil
}

type handlerFunc func(ctx context.Context, del consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error)

func (f handlerFunc) Handle(ctx context.Context, del consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error) {
	return f(ctx, del, ack)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestConsumer_SettlesThroughHandler(t *testing.T) {
	broker := &brokerAck{}
	ch := &channelStub{deliveries: make(chan amqp.Delivery, 3)}

	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	h := handlerFunc(func(_ context.Context, del consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error) {
		mu.Lock()
		seen[del.MessageID] = del.RetryCount
		mu.Unlock()
		if del.MessageID == "parked" {
			return consumer.OutcomeRetry, ack.Reject()
		}
		return consumer.OutcomeSuccess, ack.Ack()
	})

	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 1, MessageId: "a"}
	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 2, MessageId: "parked", Headers: amqp.Table{
		"x-death": []interface{}{amqp.Table{"queue": "parking", "count": int64(2)}},
	}}
	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 3, MessageId: "b"}
	close(ch.deliveries)

	c := NewConsumer(ch, ConsumerConfig{Queue: "main", ParkingQueue: "parking", Prefetch: 2}, h, discard)
	err := c.Run(context.Background())

	require.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Equal(t, 2, ch.prefetch)
	assert.False(t, ch.autoAck)
	assert.ElementsMatch(t, []uint64{1, 3}, broker.acked)
	assert.Equal(t, []uint64{2}, broker.rejected)
	assert.False(t, broker.requeued)
	assert.Equal(t, map[string]int{"a": 0, "parked": 2, "b": 0}, seen)
}

func TestConsumer_BoundedByPrefetch(t *testing.T) {
	const prefetch = 3
	broker := &brokerAck{}
	ch := &channelStub{deliveries: make(chan amqp.Delivery, 20)}

	var inFlight, peak int32
	h := handlerFunc(func(_ context.Context, _ consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return consumer.OutcomeSuccess, ack.Ack()
	})

	for i := 0; i < 20; i++ {
		ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: uint64(i + 1)}
	}
	close(ch.deliveries)

	err := NewConsumer(ch, ConsumerConfig{Queue: "main", Prefetch: prefetch}, h, discard).Run(context.Background())

	require.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Len(t, broker.acked, 20)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(prefetch))
}

func TestConsumer_RejectsDeliveryAfterPanic(t *testing.T) {
	broker := &brokerAck{}
	ch := &channelStub{deliveries: make(chan amqp.Delivery, 3)}

	h := handlerFunc(func(_ context.Context, del consumer.Delivery, ack consumer.Acknowledger) (consumer.Outcome, error) {
		switch del.MessageID {
		case "boom":
			panic("store exploded")
		case "settled-then-boom":
			_ = ack.Ack()
			panic("late panic")
		}
		return consumer.OutcomeSuccess, ack.Ack()
	})

	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 1, MessageId: "boom"}
	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 2, MessageId: "settled-then-boom"}
	ch.deliveries <- amqp.Delivery{Acknowledger: broker, DeliveryTag: 3, MessageId: "ok"}
	close(ch.deliveries)

	err := NewConsumer(ch, ConsumerConfig{Queue: "main", Prefetch: 1}, h, discard).Run(context.Background())

	require.ErrorIs(t, err, ErrDeliveriesClosed)
	assert.Equal(t, []uint64{1}, broker.rejected)
	assert.False(t, broker.requeued)
	assert.ElementsMatch(t, []uint64{2, 3}, broker.acked)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ch := &channelStub{deliveries: make(chan amqp.Delivery)}
	h := handlerFunc(func(context.Context, consumer.Delivery, consumer.Acknowledger) (consumer.Outcome, error) {
		return consumer.OutcomeSuccess, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewConsumer(ch, ConsumerConfig{Queue: "main", Prefetch: 1}, h, discard).Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
