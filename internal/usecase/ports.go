package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/deal"
	"github.com/kotikvkofte/deal-service/internal/domain/role"
)

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("invalid input")

// The interfaces below are satisfied by the postgres repositories.

type ContractorStore interface {
	Create(ctx context.Context, c *contractor.DealContractor) error
	Update(ctx context.Context, c *contractor.DealContractor) error
	GetActive(ctx context.Context, id string) (*contractor.DealContractor, error)
	ListActiveByContractorID(ctx context.Context, contractorID string) ([]*contractor.DealContractor, error)
	ListActiveByDealID(ctx context.Context, dealID string) ([]*contractor.DealContractor, error)
	Deactivate(ctx context.Context, id string) error
}

type DealStore interface {
	Create(ctx context.Context, d *deal.Deal) error
	Update(ctx context.Context, d *deal.Deal) error
	GetActive(ctx context.Context, id string) (*deal.Deal, error)
	UpdateStatus(ctx context.Context, id, statusID string) error
	StatusExists(ctx context.Context, statusID string) (bool, error)
	ListStatuses(ctx context.Context) ([]deal.Status, error)
	ListTypes(ctx context.Context) ([]deal.Type, error)
	UpsertType(ctx context.Context, t deal.Type) error
}

type RoleStore interface {
	Assign(ctx context.Context, contractorID, roleID string) error
	Revoke(ctx context.Context, contractorID, roleID string) error
	ListActiveByContractorIDs(ctx context.Context, contractorIDs []string) (map[string][]role.Role, error)
}

// Cache is a JSON key/value cache. A miss is reported as (false, nil).
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	dealStatusesKey = "deal-status:all"
	dealTypesKey    = "deal-type:all"
)

func dealKey(id string) string {
	return "deal:" + id
}

// nopCache is used when Redis is not configured.
type nopCache struct{}

func (nopCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (nopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, ...string) error                   { return nil }

func cacheOrNop(c Cache) Cache {
	if c == nil {
		return nopCache{}
	}
	return c
}
