package leads

import "errors"

var (
	// ErrLeadNotFound indicates the lead does not exist or belongs to another tenant.
	ErrLeadNotFound = errors.New("leads: lead not found")
	// ErrMissingTenantID indicates the request lacked a tenant.
	ErrMissingTenantID = errors.New("leads: tenant id is required")
	// ErrMissingPhone indicates the request lacked a phone number.
	ErrMissingPhone = errors.New("leads: phone is required")
)
