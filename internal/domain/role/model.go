package role

import "errors"

var ErrNotFound = errors.New("contractor role not found")

// Role is a dictionary entry such as BORROWER or WARRANTY.
type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Link assigns a role to a deal contractor.
type Link struct {
	ContractorID string `json:"contractor_id"`
	RoleID       string `json:"role_id"`
	IsActive     bool   `json:"is_active"`
}
