package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/event"
	"github.com/kotikvkofte/deal-service/internal/domain/inbox"

	"github.com/google/uuid"
)

type Config struct {
	// RetryThreshold bounds the number of delay-queue cycles before a message is abandoned.
	RetryThreshold int
	// Kind tags the idempotency records written by this dispatcher.
	Kind string
}

// Dispatcher runs the per-delivery state machine: dedup check, handler call,
// outcome classification, idempotency record and acknowledgment.
type Dispatcher struct {
	cfg     Config
	store   IdempotencyStore
	handler Handler
	sink    DeadLetterSink
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Dispatcher)

func WithDeadLetterSink(sink DeadLetterSink) Option {
	return func(d *Dispatcher) {
		d.sink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(cfg Config, store IdempotencyStore, handler Handler, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("consumer: idempotency store is required")
	}
	if handler == nil {
		return nil, errors.New("consumer: handler is required")
	}
	if cfg.RetryThreshold < 0 {
		return nil, errors.New("consumer: retry threshold must be >= 0")
	}
	if cfg.Kind == "" {
		cfg.Kind = event.ContractorUpdateKind
	}

	d := &Dispatcher{
		cfg:     cfg,
		store:   store,
		handler: handler,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Handle settles a single delivery. The returned error is only set when the
// broker call itself failed; every business failure is absorbed into the outcome.
func (d *Dispatcher) Handle(ctx context.Context, del Delivery, ack Acknowledger) (Outcome, error) {
	started := time.Now()
	log := d.logger.With("message_id", del.MessageID, "retry_count", del.RetryCount)

	outcome, cause, contractorID := d.process(ctx, del, log)
	if contractorID != "" {
		log = log.With("contractor_id", contractorID)
	}

	switch outcome {
	case OutcomeSkip:
		log.Info("skip duplicate message")
	case OutcomeSuccess:
		log.Info("contractor update applied")
	case OutcomeNotFound:
		log.Warn("no deal contractors for update, recorded as processed", "error", cause)
	case OutcomeRetry:
		log.Warn("contractor update failed, parking for retry",
			"error", cause, "retry_threshold", d.cfg.RetryThreshold)
	case OutcomeAbandon:
		log.Error("retries exhausted, contractor update dropped",
			"error", cause, "retry_threshold", d.cfg.RetryThreshold)
	case OutcomeMalformed:
		log.Error("malformed contractor update dropped", "error", cause)
	}

	if outcome == OutcomeAbandon || outcome == OutcomeMalformed {
		d.deadLetter(ctx, del, outcome, cause, log)
	}

	err := d.settle(outcome, ack)
	messagesTotal.WithLabelValues(outcome.String()).Inc()
	handleDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return outcome, fmt.Errorf("%s message %s: %w", outcome.Action(), del.MessageID, err)
	}
	return outcome, nil
}

// process returns the outcome, its cause and the contractor id when the body decoded.
func (d *Dispatcher) process(ctx context.Context, del Delivery, log *slog.Logger) (Outcome, error, string) {
	parsed, err := uuid.Parse(del.MessageID)
	if err != nil {
		return OutcomeMalformed, fmt.Errorf("invalid message id %q: %w", del.MessageID, err), ""
	}
	// Brace, urn and undashed spellings are stored in canonical form.
	id := parsed.String()

	seen, err := d.store.Exists(ctx, id)
	if err != nil {
		return RetryDecision(del.RetryCount, d.cfg.RetryThreshold), fmt.Errorf("check inbox: %w", err), ""
	}
	if seen {
		return OutcomeSkip, nil, ""
	}

	ev, err := event.Decode(del.Body)
	if err != nil {
		return OutcomeMalformed, err, ""
	}

	res := d.invoke(ctx, ev)
	outcome := Classify(res, del.RetryCount, d.cfg.RetryThreshold)
	if !outcome.Records() {
		return outcome, res.Err, ev.ID
	}

	rec := inbox.Record{
		ID:         id,
		Kind:       d.cfg.Kind,
		RecordedAt: d.now().UTC(),
	}
	if err := d.store.Record(ctx, rec); err != nil {
		if errors.Is(err, inbox.ErrDuplicate) {
			log.Warn("inbox record already present", "contractor_id", ev.ID, "error", err)
			return outcome, res.Err, ev.ID
		}
		// The handler is last-writer-wins, so replaying it after a failed record is harmless.
		return RetryDecision(del.RetryCount, d.cfg.RetryThreshold), fmt.Errorf("record inbox: %w", err), ev.ID
	}

	return outcome, res.Err, ev.ID
}

// invoke calls the handler and converts a panic into a transient result.
func (d *Dispatcher) invoke(ctx context.Context, ev *event.ContractorUpdated) (res event.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = event.Transient(fmt.Errorf("panic recovered: %v\n%s", r, debug.Stack()))
		}
	}()
	return d.handler.Handle(ctx, ev)
}

func (d *Dispatcher) settle(outcome Outcome, ack Acknowledger) error {
	if outcome.Action() == ActionReject {
		return ack.Reject()
	}
	return ack.Ack()
}

func (d *Dispatcher) deadLetter(ctx context.Context, del Delivery, outcome Outcome, cause error, log *slog.Logger) {
	if d.sink == nil {
		return
	}

	dl := DeadLetter{
		MessageID:   del.MessageID,
		Reason:      outcome.String(),
		RetryCount:  del.RetryCount,
		Body:        del.Body,
		AbandonedAt: d.now().UTC(),
	}
	if cause != nil {
		dl.Error = cause.Error()
	}

	if err := d.sink.Publish(ctx, dl); err != nil {
		log.Error("failed to publish dead letter", "error", err)
	}
}
