package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kotikvkofte/deal-service/internal/consumer"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterProducer publishes abandoned and malformed deliveries, keyed by
// message id, to an audit topic for manual replay.
type DeadLetterProducer struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

func NewDeadLetterProducer(cfg Config) *DeadLetterProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            5,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &DeadLetterProducer{writer: w, topic: cfg.Topic, timeout: 5 * time.Second}
}

func (p *DeadLetterProducer) Publish(ctx context.Context, dl consumer.DeadLetter) error {
	value, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(sendCtx, kafka.Message{
		Key:   []byte(dl.MessageID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(dl.Reason)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write dead letter to %s: %w", p.topic, err)
	}
	return nil
}

func (p *DeadLetterProducer) Topic() string {
	return p.topic
}

func (p *DeadLetterProducer) Close() error {
	return p.writer.Close()
}
