package consumer

import (
	"context"

	"github.com/kotikvkofte/deal-service/internal/domain/event"
	"github.com/kotikvkofte/deal-service/internal/domain/inbox"
)

// IdempotencyStore is the durable write-once set of processed message ids.
//
// Exists must be safe for concurrent use. Record fails with inbox.ErrDuplicate
// when the id is already present.
type IdempotencyStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Record(ctx context.Context, rec inbox.Record) error
}

// Handler applies a contractor update and reports a typed result.
type Handler interface {
	Handle(ctx context.Context, ev *event.ContractorUpdated) event.Result
}

type HandlerFunc func(ctx context.Context, ev *event.ContractorUpdated) event.Result

func (f HandlerFunc) Handle(ctx context.Context, ev *event.ContractorUpdated) event.Result {
	return f(ctx, ev)
}

// Acknowledger settles one delivery with the broker.
type Acknowledger interface {
	Ack() error
	// Reject must not requeue: the message is routed to the delayed-retry path.
	Reject() error
}

// Delivery is the broker-independent view of an inbound message.
type Delivery struct {
	MessageID string
	Body      []byte
	// RetryCount is how many times the message already went through the delay queue.
	RetryCount int
}
