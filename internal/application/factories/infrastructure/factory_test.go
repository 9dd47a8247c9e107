package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kotikvkofte/deal-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Topology(t *testing.T) {
	cfg, err := config.Load("does-not-exist.yaml")
	require.NoError(t, err)

	top := NewFactory(cfg).Topology()

	assert.Equal(t, "contractors_contractor_exchange", top.MainExchange)
	assert.Equal(t, "deals_contractor_queue", top.MainQueue)
	assert.Equal(t, "deals_contractor_dead_queue", top.ParkingQueue)
	assert.Equal(t, 5*time.Minute, top.ParkingTTL)
	assert.Equal(t, int64(300000), top.ParkingQueueArgs()["x-message-ttl"])
}

func TestFactory_DeadLetterProducerDisabled(t *testing.T) {
	f := NewFactory(&config.Config{})
	assert.Nil(t, f.DeadLetterProducer())
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, "test", func() error {
		calls++
		cancel()
		return errors.New("refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
