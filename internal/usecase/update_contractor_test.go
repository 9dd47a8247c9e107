package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func contractorUpdate(id, name string, at time.Time) *event.ContractorUpdated {
	return &event.ContractorUpdated{
		ID:             id,
		Name:           name,
		INN:            "770123456789",
		ModifyUserID:   "contractor-service",
		ModifyDateTime: event.Timestamp{Time: at},
	}
}

func TestUpdateContractor_OverwritesOlderRows(t *testing.T) {
	store := newContractorsFake(
		&contractor.DealContractor{ID: "a", DealID: "d1", ContractorID: "CTR119", Name: "Old", IsActive: true,
			ModifyDate: ptr(ts("2025-07-16T12:00:00Z"))},
		&contractor.DealContractor{ID: "b", DealID: "d2", ContractorID: "CTR119", Name: "Old", IsActive: true},
		&contractor.DealContractor{ID: "c", DealID: "d3", ContractorID: "CTR119", Name: "Gone", IsActive: false},
		&contractor.DealContractor{ID: "d", DealID: "d4", ContractorID: "OTHER", Name: "Other", IsActive: true},
	)
	cache := newCacheFake()
	tx := &txStub{}
	uc := NewUpdateContractor(tx, store, cache, quiet)

	res := uc.Handle(context.Background(), contractorUpdate("CTR119", "Contractor Ltd", ts("2025-07-16T15:56:00Z")))

	assert.Equal(t, event.ResultSuccess, res.Kind)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, 2, store.updates)
	assert.Equal(t, "Contractor Ltd", store.rows["a"].Name)
	assert.Equal(t, "770123456789", store.rows["a"].INN)
	assert.Equal(t, "contractor-service", store.rows["a"].ModifyUserID)
	assert.Equal(t, "Contractor Ltd", store.rows["b"].Name)
	assert.Equal(t, "Gone", store.rows["c"].Name)
	assert.Equal(t, "Other", store.rows["d"].Name)
	assert.ElementsMatch(t, []string{"deal:d1", "deal:d2"}, cache.deleted)
}

func TestUpdateContractor_StaleUpdateIsNoop(t *testing.T) {
	local := ts("2025-07-16T16:00:00Z")
	store := newContractorsFake(
		&contractor.DealContractor{ID: "a", DealID: "d1", ContractorID: "CTR119", Name: "Newer", IsActive: true, ModifyDate: &local},
	)
	uc := NewUpdateContractor(&txStub{}, store, nil, quiet)

	for _, at := range []time.Time{local, local.Add(-time.Hour)} {
		res := uc.Handle(context.Background(), contractorUpdate("CTR119", "Stale", at))

		assert.Equal(t, event.ResultSuccess, res.Kind)
		assert.Zero(t, store.updates)
		assert.Equal(t, "Newer", store.rows["a"].Name)
	}
}

func TestUpdateContractor_NoActiveRows(t *testing.T) {
	store := newContractorsFake(
		&contractor.DealContractor{ID: "c", ContractorID: "CTR119", IsActive: false},
	)
	uc := NewUpdateContractor(&txStub{}, store, nil, quiet)

	res := uc.Handle(context.Background(), contractorUpdate("CTR119", "X", ts("2025-07-16T15:56:00Z")))

	assert.Equal(t, event.ResultNotFound, res.Kind)
	assert.ErrorIs(t, res.Err, contractor.ErrNotFound)
}

func TestUpdateContractor_StorageFailuresAreTransient(t *testing.T) {
	row := func() *contractor.DealContractor {
		return &contractor.DealContractor{ID: "a", DealID: "d1", ContractorID: "CTR119", IsActive: true}
	}
	at := ts("2025-07-16T15:56:00Z")

	t.Run("list", func(t *testing.T) {
		store := newContractorsFake(row())
		store.listErr = errors.New("connection reset")

		res := NewUpdateContractor(&txStub{}, store, nil, quiet).Handle(context.Background(), contractorUpdate("CTR119", "X", at))

		assert.Equal(t, event.ResultTransient, res.Kind)
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "connection reset")
	})

	t.Run("update", func(t *testing.T) {
		store := newContractorsFake(row())
		store.updateErr = errors.New("deadlock detected")

		res := NewUpdateContractor(&txStub{}, store, nil, quiet).Handle(context.Background(), contractorUpdate("CTR119", "X", at))

		assert.Equal(t, event.ResultTransient, res.Kind)
	})

	t.Run("commit", func(t *testing.T) {
		store := newContractorsFake(row())

		res := NewUpdateContractor(&txStub{commitErr: errors.New("serialization failure")}, store, nil, quiet).
			Handle(context.Background(), contractorUpdate("CTR119", "X", at))

		assert.Equal(t, event.ResultTransient, res.Kind)
	})
}
