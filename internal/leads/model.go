package leads

import (
	"strings"
	"time"
)

// Status tracks the business-facing lifecycle of a lead.
type Status string

const (
	StatusNew          Status = "new"
	StatusEngaged      Status = "engaged"
	StatusQualified    Status = "qualified"
	StatusUnresponsive Status = "unresponsive"
)

// Lead represents a lead captured from the marketing site.
type Lead struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	TenantID string `json:"-"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Source   string `json:"source"`
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return ErrMissingTenantID
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}
