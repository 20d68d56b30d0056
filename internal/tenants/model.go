package tenants

import (
	"errors"
	"time"
)

// ErrTenantNotFound indicates the tenant does not exist.
var ErrTenantNotFound = errors.New("tenants: tenant not found")

// Tenant holds per-business configuration for outbound messaging and
// operator notifications.
type Tenant struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	WhatsAppPhoneID     string    `json:"whatsapp_phone_id"`
	WhatsAppAccessToken string    `json:"-"`
	NotifyEmail         string    `json:"notify_email"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HasMessagingCredentials reports whether the tenant can send WhatsApp messages.
func (t *Tenant) HasMessagingCredentials() bool {
	return t != nil && t.WhatsAppPhoneID != "" && t.WhatsAppAccessToken != ""
}
