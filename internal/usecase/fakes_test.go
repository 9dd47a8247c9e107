package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/deal"
	"github.com/kotikvkofte/deal-service/internal/domain/role"
)

// txStub runs fn directly. commitErr simulates a failed commit.
type txStub struct {
	calls     int
	commitErr error
}

func (s *txStub) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return s.commitErr
}

type contractorsFake struct {
	mu      sync.Mutex
	rows    map[string]*contractor.DealContractor
	updates int

	listErr   error
	updateErr error
}

func newContractorsFake(rows ...*contractor.DealContractor) *contractorsFake {
	f := &contractorsFake{rows: make(map[string]*contractor.DealContractor)}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *contractorsFake) Create(_ context.Context, c *contractor.DealContractor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *contractorsFake) Update(_ context.Context, c *contractor.DealContractor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.rows[c.ID]
	if !ok || !existing.IsActive {
		return contractor.ErrNotFound
	}
	f.updates++
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *contractorsFake) GetActive(_ context.Context, id string) (*contractor.DealContractor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || !c.IsActive {
		return nil, contractor.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *contractorsFake) ListActiveByContractorID(_ context.Context, contractorID string) ([]*contractor.DealContractor, error) {
	return f.filter(func(c *contractor.DealContractor) bool { return c.ContractorID == contractorID }, f.listErr)
}

func (f *contractorsFake) ListActiveByDealID(_ context.Context, dealID string) ([]*contractor.DealContractor, error) {
	return f.filter(func(c *contractor.DealContractor) bool { return c.DealID == dealID }, nil)
}

func (f *contractorsFake) filter(match func(*contractor.DealContractor) bool, err error) ([]*contractor.DealContractor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []*contractor.DealContractor
	for _, c := range f.rows {
		if c.IsActive && match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *contractorsFake) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || !c.IsActive {
		return contractor.ErrNotFound
	}
	c.IsActive = false
	return nil
}

type dealsFake struct {
	deals    map[string]*deal.Deal
	statuses []deal.Status
	types    []deal.Type

	listCalls int
}

func newDealsFake(deals ...*deal.Deal) *dealsFake {
	f := &dealsFake{
		deals:    make(map[string]*deal.Deal),
		statuses: []deal.Status{{ID: "ACTIVE", Name: "Active"}, {ID: "CLOSED", Name: "Closed"}, {ID: "DRAFT", Name: "Draft"}},
	}
	for _, d := range deals {
		f.deals[d.ID] = d
	}
	return f
}

func (f *dealsFake) Create(_ context.Context, d *deal.Deal) error {
	cp := *d
	f.deals[d.ID] = &cp
	return nil
}

func (f *dealsFake) Update(_ context.Context, d *deal.Deal) error {
	if _, ok := f.deals[d.ID]; !ok {
		return deal.ErrNotFound
	}
	cp := *d
	f.deals[d.ID] = &cp
	return nil
}

func (f *dealsFake) GetActive(_ context.Context, id string) (*deal.Deal, error) {
	d, ok := f.deals[id]
	if !ok || !d.IsActive {
		return nil, deal.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *dealsFake) UpdateStatus(_ context.Context, id, statusID string) error {
	d, ok := f.deals[id]
	if !ok || !d.IsActive {
		return deal.ErrNotFound
	}
	d.StatusID = statusID
	return nil
}

func (f *dealsFake) StatusExists(_ context.Context, statusID string) (bool, error) {
	for _, s := range f.statuses {
		if s.ID == statusID {
			return true, nil
		}
	}
	return false, nil
}

func (f *dealsFake) ListStatuses(context.Context) ([]deal.Status, error) {
	f.listCalls++
	return f.statuses, nil
}

func (f *dealsFake) ListTypes(context.Context) ([]deal.Type, error) {
	f.listCalls++
	return f.types, nil
}

func (f *dealsFake) UpsertType(_ context.Context, t deal.Type) error {
	for i := range f.types {
		if f.types[i].ID == t.ID {
			f.types[i] = t
			return nil
		}
	}
	f.types = append(f.types, t)
	return nil
}

type rolesFake struct {
	links map[string]map[string]bool
	names map[string]role.Role
}

func newRolesFake() *rolesFake {
	return &rolesFake{
		links: make(map[string]map[string]bool),
		names: map[string]role.Role{
			"BORROWER": {ID: "BORROWER", Name: "Borrower", Category: "BORROWER"},
			"WARRANTY": {ID: "WARRANTY", Name: "Warranty", Category: "WARRANTY"},
		},
	}
}

func (f *rolesFake) Assign(_ context.Context, contractorID, roleID string) error {
	if f.links[contractorID] == nil {
		f.links[contractorID] = make(map[string]bool)
	}
	f.links[contractorID][roleID] = true
	return nil
}

func (f *rolesFake) Revoke(_ context.Context, contractorID, roleID string) error {
	if !f.links[contractorID][roleID] {
		return role.ErrNotFound
	}
	f.links[contractorID][roleID] = false
	return nil
}

func (f *rolesFake) ListActiveByContractorIDs(_ context.Context, ids []string) (map[string][]role.Role, error) {
	out := make(map[string][]role.Role)
	for _, id := range ids {
		var roleIDs []string
		for r, active := range f.links[id] {
			if active {
				roleIDs = append(roleIDs, r)
			}
		}
		sort.Strings(roleIDs)
		for _, r := range roleIDs {
			out[id] = append(out[id], f.names[r])
		}
	}
	return out, nil
}

type cacheFake struct {
	data    map[string][]byte
	deleted []string
	sets    int
}

func newCacheFake() *cacheFake {
	return &cacheFake{data: make(map[string][]byte)}
}

func (c *cacheFake) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *cacheFake) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = b
	return nil
}

func (c *cacheFake) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}
