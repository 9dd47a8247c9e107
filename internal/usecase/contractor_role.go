package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type ContractorRoleParams struct {
	ContractorID string `json:"contractorId"`
	RoleID       string `json:"roleId"`
}

func (p ContractorRoleParams) validate() error {
	if _, err := uuid.Parse(p.ContractorID); err != nil {
		return fmt.Errorf("%w: contractorId is not a uuid", ErrInvalidInput)
	}
	if p.RoleID == "" {
		return fmt.Errorf("%w: missing roleId", ErrInvalidInput)
	}
	return nil
}

// ContractorRoles links deal contractors to roles such as BORROWER.
type ContractorRoles struct {
	contractors ContractorStore
	roles       RoleStore
	cache       Cache
}

func NewContractorRoles(contractors ContractorStore, roles RoleStore, cache Cache) *ContractorRoles {
	return &ContractorRoles{contractors: contractors, roles: roles, cache: cacheOrNop(cache)}
}

func (uc *ContractorRoles) Add(ctx context.Context, params ContractorRoleParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	c, err := uc.contractors.GetActive(ctx, params.ContractorID)
	if err != nil {
		return fmt.Errorf("add contractor role: %w", err)
	}
	if err := uc.roles.Assign(ctx, params.ContractorID, params.RoleID); err != nil {
		return fmt.Errorf("add contractor role: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(c.DealID))
	return nil
}

func (uc *ContractorRoles) Delete(ctx context.Context, params ContractorRoleParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	c, err := uc.contractors.GetActive(ctx, params.ContractorID)
	if err != nil {
		return fmt.Errorf("delete contractor role: %w", err)
	}
	if err := uc.roles.Revoke(ctx, params.ContractorID, params.RoleID); err != nil {
		return fmt.Errorf("delete contractor role: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealKey(c.DealID))
	return nil
}
