package deal

import (
	"errors"
	"time"
)

const StatusDraft = "DRAFT"

var (
	ErrNotFound       = errors.New("deal not found")
	ErrStatusNotFound = errors.New("deal status not found")
)

type Deal struct {
	ID               string     `json:"id"`
	Description      string     `json:"description,omitempty"`
	AgreementNumber  string     `json:"agreement_number,omitempty"`
	AgreementDate    *time.Time `json:"agreement_date,omitempty"`
	AgreementStartDt *time.Time `json:"agreement_start_dt,omitempty"`
	AvailabilityDate *time.Time `json:"availability_date,omitempty"`
	TypeID           string     `json:"type_id,omitempty"`
	StatusID         string     `json:"status_id"`
	CloseDt          *time.Time `json:"close_dt,omitempty"`
	CreateDate       time.Time  `json:"create_date"`
	ModifyDate       *time.Time `json:"modify_date,omitempty"`
	CreateUserID     string     `json:"create_user_id,omitempty"`
	ModifyUserID     string     `json:"modify_user_id,omitempty"`
	IsActive         bool       `json:"is_active"`
}

// Status and Type are dictionary entries keyed by a short code.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Type struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
