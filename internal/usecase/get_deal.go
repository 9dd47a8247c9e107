package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/deal"
	"github.com/kotikvkofte/deal-service/internal/domain/role"

	"github.com/google/uuid"
)

type DealContractorDTO struct {
	contractor.DealContractor
	Roles []role.Role `json:"roles"`
}

type DealDTO struct {
	deal.Deal
	Contractors []DealContractorDTO `json:"contractors"`
}

type GetDeal struct {
	deals       DealStore
	contractors ContractorStore
	roles       RoleStore
	cache       Cache
	ttl         time.Duration
}

func NewGetDeal(deals DealStore, contractors ContractorStore, roles RoleStore, cache Cache, ttl time.Duration) *GetDeal {
	return &GetDeal{
		deals:       deals,
		contractors: contractors,
		roles:       roles,
		cache:       cacheOrNop(cache),
		ttl:         ttl,
	}
}

// Execute returns the deal with its active contractors and their roles.
// Results are cached until the deal or one of its contractors changes.
func (uc *GetDeal) Execute(ctx context.Context, id string) (*DealDTO, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id is not a uuid", ErrInvalidInput)
	}

	var cached DealDTO
	if hit, err := uc.cache.GetJSON(ctx, dealKey(id), &cached); err == nil && hit {
		return &cached, nil
	}

	d, err := uc.deals.GetActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}

	list, err := uc.contractors.ListActiveByDealID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deal contractors: %w", err)
	}

	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	roles, err := uc.roles.ListActiveByContractorIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get contractor roles: %w", err)
	}

	dto := &DealDTO{Deal: *d, Contractors: make([]DealContractorDTO, 0, len(list))}
	for _, c := range list {
		r := roles[c.ID]
		if r == nil {
			r = []role.Role{}
		}
		dto.Contractors = append(dto.Contractors, DealContractorDTO{DealContractor: *c, Roles: r})
	}

	_ = uc.cache.SetJSON(ctx, dealKey(id), dto, uc.ttl)
	return dto, nil
}
