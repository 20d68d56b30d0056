package messaging

import (
	"context"
	"errors"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// tenantDirectory is the subset of the tenant store the provider needs.
type tenantDirectory interface {
	GetByID(ctx context.Context, id string) (*tenants.Tenant, error)
}

// Provider resolves a tenant-scoped WhatsApp sender from the tenant's stored
// credentials. Tenants without messaging credentials resolve to ok=false so
// the pipeline degrades to silent qualification instead of failing.
type Provider struct {
	tenants tenantDirectory
	baseURL string
	logger  *logging.Logger
}

// NewProvider creates a messenger provider backed by the tenant store.
func NewProvider(directory tenantDirectory, baseURL string, logger *logging.Logger) *Provider {
	if directory == nil {
		panic("messaging: tenant directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Provider{tenants: directory, baseURL: baseURL, logger: logger}
}

var _ conversation.MessengerResolver = (*Provider)(nil)

// MessengerFor returns a sender for the tenant's WhatsApp number. A missing
// tenant or missing credentials is a configuration gap, not a transient
// fault, so both report ok=false without an error.
func (p *Provider) MessengerFor(ctx context.Context, tenantID string) (conversation.TextSender, bool, error) {
	tenant, err := p.tenants.GetByID(ctx, tenantID)
	if errors.Is(err, tenants.ErrTenantNotFound) {
		p.logger.Warn("messenger requested for unknown tenant", "tenant_id", tenantID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !tenant.HasMessagingCredentials() {
		return nil, false, nil
	}

	return NewWhatsAppSender(p.baseURL, tenant.WhatsAppPhoneID, tenant.WhatsAppAccessToken, p.logger), true, nil
}
