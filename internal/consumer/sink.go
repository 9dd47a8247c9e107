package consumer

import (
	"context"
	"time"
)

// DeadLetter describes a delivery that was dropped without being applied.
type DeadLetter struct {
	MessageID   string    `json:"message_id"`
	Reason      string    `json:"reason"`
	Error       string    `json:"error,omitempty"`
	RetryCount  int       `json:"retry_count"`
	Body        []byte    `json:"body"`
	AbandonedAt time.Time `json:"abandoned_at"`
}

// DeadLetterSink keeps abandoned and malformed deliveries for manual replay.
type DeadLetterSink interface {
	Publish(ctx context.Context, dl DeadLetter) error
}
