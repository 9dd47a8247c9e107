package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"

	"github.com/google/uuid"
)

const maxContractorIDLen = 12

type SaveDealContractorParams struct {
	ID           string `json:"id,omitempty"`
	DealID       string `json:"dealId"`
	ContractorID string `json:"contractorId"`
	Name         string `json:"name"`
	INN          string `json:"inn,omitempty"`
	Main         bool   `json:"main"`
	UserID       string `json:"-"`
}

func (p SaveDealContractorParams) validate() error {
	var missing []string
	if p.DealID == "" {
		missing = append(missing, "dealId")
	}
	if p.ContractorID == "" {
		missing = append(missing, "contractorId")
	}
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if len(p.ContractorID) > maxContractorIDLen {
		return fmt.Errorf("%w: contractorId longer than %d characters", ErrInvalidInput, maxContractorIDLen)
	}
	if p.ID != "" {
		if _, err := uuid.Parse(p.ID); err != nil {
			return fmt.Errorf("%w: id is not a uuid", ErrInvalidInput)
		}
	}
	if _, err := uuid.Parse(p.DealID); err != nil {
		return fmt.Errorf("%w: dealId is not a uuid", ErrInvalidInput)
	}
	return nil
}

type SaveDealContractor struct {
	txManager   postgres.Transactor
	contractors ContractorStore
	deals       DealStore
	cache       Cache
	now         func() time.Time
}

func NewSaveDealContractor(txManager postgres.Transactor, contractors ContractorStore, deals DealStore, cache Cache) *SaveDealContractor {
	return &SaveDealContractor{
		txManager:   txManager,
		contractors: contractors,
		deals:       deals,
		cache:       cacheOrNop(cache),
		now:         time.Now,
	}
}

// Execute creates a deal contractor when params.ID is empty and updates it otherwise.
func (uc *SaveDealContractor) Execute(ctx context.Context, params SaveDealContractorParams) (*contractor.DealContractor, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	var saved *contractor.DealContractor
	err := uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := uc.deals.GetActive(txCtx, params.DealID); err != nil {
			return err
		}

		now := uc.now().UTC()
		if params.ID == "" {
			saved = &contractor.DealContractor{
				ID:           uuid.New().String(),
				DealID:       params.DealID,
				ContractorID: params.ContractorID,
				Name:         params.Name,
				INN:          params.INN,
				Main:         params.Main,
				CreateDate:   now,
				CreateUserID: params.UserID,
				IsActive:     true,
			}
			return uc.contractors.Create(txCtx, saved)
		}

		existing, err := uc.contractors.GetActive(txCtx, params.ID)
		if err != nil {
			return err
		}
		existing.DealID = params.DealID
		existing.ContractorID = params.ContractorID
		existing.Name = params.Name
		existing.INN = params.INN
		existing.Main = params.Main
		existing.ModifyDate = &now
		existing.ModifyUserID = params.UserID
		saved = existing
		return uc.contractors.Update(txCtx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("save deal contractor: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(saved.DealID))
	return saved, nil
}

type DeleteDealContractor struct {
	contractors ContractorStore
	cache       Cache
}

func NewDeleteDealContractor(contractors ContractorStore, cache Cache) *DeleteDealContractor {
	return &DeleteDealContractor{contractors: contractors, cache: cacheOrNop(cache)}
}

// Execute marks the deal contractor inactive.
func (uc *DeleteDealContractor) Execute(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id is not a uuid", ErrInvalidInput)
	}

	existing, err := uc.contractors.GetActive(ctx, id)
	if err != nil {
		return fmt.Errorf("delete deal contractor: %w", err)
	}
	if err := uc.contractors.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("delete deal contractor: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(existing.DealID))
	return nil
}
