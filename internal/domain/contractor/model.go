package contractor

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("deal contractor not found")

// DealContractor links an external contractor to a deal.
// ContractorID is the identifier issued by the contractor service.
type DealContractor struct {
	ID           string     `json:"id"`
	DealID       string     `json:"deal_id"`
	ContractorID string     `json:"contractor_id"`
	Name         string     `json:"name"`
	INN          string     `json:"inn,omitempty"`
	Main         bool       `json:"main"`
	CreateDate   time.Time  `json:"create_date"`
	ModifyDate   *time.Time `json:"modify_date,omitempty"`
	CreateUserID string     `json:"create_user_id,omitempty"`
	ModifyUserID string     `json:"modify_user_id,omitempty"`
	IsActive     bool       `json:"is_active"`
}

// ApplyUpdate overwrites the contractor-owned fields when the update is newer
// than the local state. It reports whether anything changed.
func (c *DealContractor) ApplyUpdate(name, inn, modifiedBy string, modifiedAt time.Time) bool {
	if c.ModifyDate != nil && !c.ModifyDate.Before(modifiedAt) {
		return false
	}

	c.Name = name
	c.INN = inn
	c.ModifyUserID = modifiedBy
	at := modifiedAt
	c.ModifyDate = &at
	return true
}
