package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/event"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"
)

// UpdateContractor applies contractor updates to every active deal contractor
// that references the external contractor id. Older updates are ignored.
type UpdateContractor struct {
	txManager   postgres.Transactor
	contractors ContractorStore
	cache       Cache
	logger      *slog.Logger
}

func NewUpdateContractor(txManager postgres.Transactor, contractors ContractorStore, cache Cache, logger *slog.Logger) *UpdateContractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateContractor{
		txManager:   txManager,
		contractors: contractors,
		cache:       cacheOrNop(cache),
		logger:      logger,
	}
}

func (uc *UpdateContractor) Handle(ctx context.Context, ev *event.ContractorUpdated) event.Result {
	var (
		matched int
		touched []string
	)

	err := uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		matched, touched = 0, nil

		list, err := uc.contractors.ListActiveByContractorID(txCtx, ev.ID)
		if err != nil {
			return err
		}
		matched = len(list)

		for _, c := range list {
			if !c.ApplyUpdate(ev.Name, ev.INN, ev.ModifyUserID, ev.ModifyDateTime.Time) {
				continue
			}
			if err := uc.contractors.Update(txCtx, c); err != nil {
				return err
			}
			touched = append(touched, c.DealID)
		}
		return nil
	})
	if err != nil {
		return event.Transient(fmt.Errorf("update deal contractors for %s: %w", ev.ID, err))
	}

	if matched == 0 {
		return event.NotFound(fmt.Errorf("contractor %s: %w", ev.ID, contractor.ErrNotFound))
	}

	uc.evict(ctx, touched)
	uc.logger.Debug("deal contractors updated", "contractor_id", ev.ID, "matched", matched, "updated", len(touched))
	return event.Success()
}

func (uc *UpdateContractor) evict(ctx context.Context, dealIDs []string) {
	if len(dealIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(dealIDs))
	for _, id := range dealIDs {
		keys = append(keys, dealKey(id))
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Warn("failed to evict deal cache", "error", err)
	}
}
