package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/deal"
	"github.com/kotikvkofte/deal-service/internal/infrastructure/postgres"

	"github.com/google/uuid"
)

type SaveDealParams struct {
	ID               string `json:"id,omitempty"`
	Description      string `json:"description"`
	AgreementNumber  string `json:"agreementNumber"`
	AgreementDate    string `json:"agreementDate,omitempty"`
	AgreementStartDt string `json:"agreementStartDt,omitempty"`
	AvailabilityDate string `json:"availabilityDate,omitempty"`
	TypeID           string `json:"typeId,omitempty"`
	UserID           string `json:"-"`
}

type SaveDeal struct {
	txManager postgres.Transactor
	deals     DealStore
	cache     Cache
	now       func() time.Time
}

func NewSaveDeal(txManager postgres.Transactor, deals DealStore, cache Cache) *SaveDeal {
	return &SaveDeal{
		txManager: txManager,
		deals:     deals,
		cache:     cacheOrNop(cache),
		now:       time.Now,
	}
}

// Execute creates a DRAFT deal when params.ID is empty and updates the deal otherwise.
func (uc *SaveDeal) Execute(ctx context.Context, params SaveDealParams) (*deal.Deal, error) {
	if params.ID != "" {
		if _, err := uuid.Parse(params.ID); err != nil {
			return nil, fmt.Errorf("%w: id is not a uuid", ErrInvalidInput)
		}
	}

	agreementDate, err := parseDate("agreementDate", params.AgreementDate)
	if err != nil {
		return nil, err
	}
	agreementStart, err := parseDate("agreementStartDt", params.AgreementStartDt)
	if err != nil {
		return nil, err
	}
	availability, err := parseDate("availabilityDate", params.AvailabilityDate)
	if err != nil {
		return nil, err
	}

	var saved *deal.Deal
	err = uc.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := uc.now().UTC()
		if params.ID == "" {
			saved = &deal.Deal{
				ID:           uuid.New().String(),
				StatusID:     deal.StatusDraft,
				CreateDate:   now,
				CreateUserID: params.UserID,
				IsActive:     true,
			}
		} else {
			existing, err := uc.deals.GetActive(txCtx, params.ID)
			if err != nil {
				return err
			}
			existing.ModifyDate = &now
			existing.ModifyUserID = params.UserID
			saved = existing
		}

		saved.Description = params.Description
		saved.AgreementNumber = params.AgreementNumber
		saved.AgreementDate = agreementDate
		saved.AgreementStartDt = agreementStart
		saved.AvailabilityDate = availability
		saved.TypeID = params.TypeID

		if params.ID == "" {
			return uc.deals.Create(txCtx, saved)
		}
		return uc.deals.Update(txCtx, saved)
	})
	if err != nil {
		return nil, fmt.Errorf("save deal: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(saved.ID))
	return saved, nil
}

type ChangeDealStatusParams struct {
	DealID   string `json:"dealId"`
	StatusID string `json:"statusId"`
}

type ChangeDealStatus struct {
	deals DealStore
	cache Cache
}

func NewChangeDealStatus(deals DealStore, cache Cache) *ChangeDealStatus {
	return &ChangeDealStatus{deals: deals, cache: cacheOrNop(cache)}
}

func (uc *ChangeDealStatus) Execute(ctx context.Context, params ChangeDealStatusParams) error {
	if _, err := uuid.Parse(params.DealID); err != nil {
		return fmt.Errorf("%w: dealId is not a uuid", ErrInvalidInput)
	}
	if params.StatusID == "" {
		return fmt.Errorf("%w: missing statusId", ErrInvalidInput)
	}

	ok, err := uc.deals.StatusExists(ctx, params.StatusID)
	if err != nil {
		return fmt.Errorf("change deal status: %w", err)
	}
	if !ok {
		return fmt.Errorf("status %s: %w", params.StatusID, deal.ErrStatusNotFound)
	}

	if err := uc.deals.UpdateStatus(ctx, params.DealID, params.StatusID); err != nil {
		return fmt.Errorf("change deal status: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(params.DealID))
	return nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", ErrInvalidInput, field)
}
