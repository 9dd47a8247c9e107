package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	headerMessageTTL         = "x-message-ttl"
	headerDeadLetterExchange = "x-dead-letter-exchange"
	headerDeadLetterKey      = "x-dead-letter-routing-key"

	exchangeKind = "topic"

	DefaultParkingTTL = 5 * time.Minute
)

// Topology is the delayed-retry layout:
//
//	main exchange  --main key-->  main queue  --reject-->  dead exchange
//	dead exchange  --dead key-->  parking queue (TTL)  --expire-->  retry exchange
//	retry exchange --retry key--> main queue
type Topology struct {
	MainExchange  string
	DeadExchange  string
	RetryExchange string

	MainQueue    string
	ParkingQueue string

	MainKey  string
	DeadKey  string
	RetryKey string

	ParkingTTL time.Duration
}

// Declarer is the subset of *amqp.Channel used to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func (t Topology) parkingTTL() time.Duration {
	if t.ParkingTTL <= 0 {
		return DefaultParkingTTL
	}
	return t.ParkingTTL
}

// MainQueueArgs dead-letters rejected messages into the dead exchange.
func (t Topology) MainQueueArgs() amqp.Table {
	return amqp.Table{
		headerDeadLetterExchange: t.DeadExchange,
		headerDeadLetterKey:      t.DeadKey,
	}
}

// ParkingQueueArgs holds messages for the TTL and then dead-letters them into the retry exchange.
func (t Topology) ParkingQueueArgs() amqp.Table {
	return amqp.Table{
		headerMessageTTL:         t.parkingTTL().Milliseconds(),
		headerDeadLetterExchange: t.RetryExchange,
		headerDeadLetterKey:      t.RetryKey,
	}
}

// Declare creates the exchanges, queues and bindings. It is safe to call on
// every start as long as the existing entities carry the same arguments.
func (t Topology) Declare(ch Declarer) error {
	for _, name := range []string{t.MainExchange, t.DeadExchange, t.RetryExchange} {
		if err := ch.ExchangeDeclare(name, exchangeKind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}

	if _, err := ch.QueueDeclare(t.MainQueue, true, false, false, false, t.MainQueueArgs()); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.MainQueue, err)
	}
	if _, err := ch.QueueDeclare(t.ParkingQueue, true, false, false, false, t.ParkingQueueArgs()); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.ParkingQueue, err)
	}

	bindings := []struct {
		queue, key, exchange string
	}{
		{t.MainQueue, t.MainKey, t.MainExchange},
		{t.ParkingQueue, t.DeadKey, t.DeadExchange},
		{t.MainQueue, t.RetryKey, t.RetryExchange},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s (%s): %w", b.queue, b.exchange, b.key, err)
		}
	}
	return nil
}
