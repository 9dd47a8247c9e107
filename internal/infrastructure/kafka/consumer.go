package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kotikvkofte/deal-service/internal/consumer"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DeadLetterReader reads the audit topic from the beginning without joining a
// consumer group, so inspecting it never moves any committed offsets.
type DeadLetterReader struct {
	reader messageReader
}

func NewDeadLetterReader(cfg Config) *DeadLetterReader {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: false, // Force IPv4
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
		StartOffset: kafka.FirstOffset,
	})
	return &DeadLetterReader{reader: r}
}

// ReadBatch returns up to limit dead letters. It stops early once no message
// arrives within idle.
func (r *DeadLetterReader) ReadBatch(ctx context.Context, limit int, idle time.Duration) ([]consumer.DeadLetter, error) {
	var out []consumer.DeadLetter
	for len(out) < limit {
		readCtx, cancel := context.WithTimeout(ctx, idle)
		msg, err := r.reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return out, nil
			}
			return out, fmt.Errorf("read dead letter: %w", err)
		}

		var dl consumer.DeadLetter
		if err := json.Unmarshal(msg.Value, &dl); err != nil {
			dl = consumer.DeadLetter{MessageID: string(msg.Key), Reason: "unreadable", Error: err.Error(), Body: msg.Value}
		}
		out = append(out, dl)
	}
	return out, nil
}

func (r *DeadLetterReader) Close() error {
	return r.reader.Close()
}
