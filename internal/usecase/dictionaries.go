package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/deal"
)

// Dictionaries serves the deal status and deal type lists.
type Dictionaries struct {
	deals DealStore
	cache Cache
	ttl   time.Duration
}

func NewDictionaries(deals DealStore, cache Cache, ttl time.Duration) *Dictionaries {
	return &Dictionaries{deals: deals, cache: cacheOrNop(cache), ttl: ttl}
}

func (uc *Dictionaries) Statuses(ctx context.Context) ([]deal.Status, error) {
	var statuses []deal.Status
	if hit, err := uc.cache.GetJSON(ctx, dealStatusesKey, &statuses); err == nil && hit {
		return statuses, nil
	}

	statuses, err := uc.deals.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deal statuses: %w", err)
	}
	if statuses == nil {
		statuses = []deal.Status{}
	}

	_ = uc.cache.SetJSON(ctx, dealStatusesKey, statuses, uc.ttl)
	return statuses, nil
}

func (uc *Dictionaries) Types(ctx context.Context) ([]deal.Type, error) {
	var types []deal.Type
	if hit, err := uc.cache.GetJSON(ctx, dealTypesKey, &types); err == nil && hit {
		return types, nil
	}

	types, err := uc.deals.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deal types: %w", err)
	}
	if types == nil {
		types = []deal.Type{}
	}

	_ = uc.cache.SetJSON(ctx, dealTypesKey, types, uc.ttl)
	return types, nil
}

func (uc *Dictionaries) SaveType(ctx context.Context, t deal.Type) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" || strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}

	if err := uc.deals.UpsertType(ctx, t); err != nil {
		return fmt.Errorf("save deal type: %w", err)
	}

	_ = uc.cache.Delete(ctx, dealTypesKey)
	return nil
}
