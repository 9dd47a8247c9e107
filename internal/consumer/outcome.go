package consumer

import "github.com/kotikvkofte/deal-service/internal/domain/event"

// Outcome is the terminal (or parking) state a delivery ends in.
type Outcome int

const (
	// OutcomeSkip: the message id was already recorded.
	OutcomeSkip Outcome = iota
	OutcomeSuccess
	// OutcomeNotFound: permanent business failure, recorded like a success.
	OutcomeNotFound
	// OutcomeRetry: transient failure below the threshold; parked for redelivery.
	OutcomeRetry
	// OutcomeAbandon: transient failure with the retry budget exhausted.
	// The update is lost.
	OutcomeAbandon
	// OutcomeMalformed: the id or body cannot be parsed; dropped without retry.
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeRetry:
		return "retry"
	case OutcomeAbandon:
		return "abandon"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Action is the broker call issued for an outcome.
type Action int

const (
	ActionAck Action = iota
	// ActionReject rejects without requeue so the broker dead-letters the message.
	ActionReject
)

func (a Action) String() string {
	if a == ActionReject {
		return "reject"
	}
	return "ack"
}

// Action returns the acknowledgment for o. Only OutcomeRetry rejects.
func (o Outcome) Action() Action {
	if o == OutcomeRetry {
		return ActionReject
	}
	return ActionAck
}

// Records reports whether o writes an idempotency record before acknowledging.
func (o Outcome) Records() bool {
	return o == OutcomeSuccess || o == OutcomeNotFound
}

// Classify maps a handler result onto an outcome. It has no side effects.
func Classify(res event.Result, retryCount, threshold int) Outcome {
	switch res.Kind {
	case event.ResultSuccess:
		return OutcomeSuccess
	case event.ResultNotFound:
		return OutcomeNotFound
	default:
		return RetryDecision(retryCount, threshold)
	}
}

// RetryDecision parks the message while retryCount < threshold and abandons it after.
func RetryDecision(retryCount, threshold int) Outcome {
	if retryCount >= threshold {
		return OutcomeAbandon
	}
	return OutcomeRetry
}
