package consumer

import (
	"errors"
	"testing"

	"github.com/kotikvkofte/deal-service/internal/domain/event"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	transient := event.Transient(errors.New("timeout"))

	tests := []struct {
		name       string
		res        event.Result
		retryCount int
		threshold  int
		want       Outcome
	}{
		{"success", event.Success(), 0, 5, OutcomeSuccess},
		{"success ignores retry count", event.Success(), 9, 5, OutcomeSuccess},
		{"not found", event.NotFound(errors.New("none")), 0, 5, OutcomeNotFound},
		{"transient first attempt", transient, 0, 5, OutcomeRetry},
		{"transient just below threshold", transient, 4, 5, OutcomeRetry},
		{"transient at threshold", transient, 5, 5, OutcomeAbandon},
		{"transient above threshold", transient, 7, 5, OutcomeAbandon},
		{"zero threshold never retries", transient, 0, 0, OutcomeAbandon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.res, tt.retryCount, tt.threshold))
		})
	}
}

func TestOutcome_Action(t *testing.T) {
	for _, o := range []Outcome{OutcomeSkip, OutcomeSuccess, OutcomeNotFound, OutcomeAbandon, OutcomeMalformed} {
		assert.Equal(t, ActionAck, o.Action(), o.String())
	}
	assert.Equal(t, ActionReject, OutcomeRetry.Action())
}

func TestOutcome_Records(t *testing.T) {
	assert.True(t, OutcomeSuccess.Records())
	assert.True(t, OutcomeNotFound.Records())

	for _, o := range []Outcome{OutcomeSkip, OutcomeRetry, OutcomeAbandon, OutcomeMalformed} {
		assert.False(t, o.Records(), o.String())
	}
}
