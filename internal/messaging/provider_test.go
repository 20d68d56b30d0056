package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumora-ai/leadflow/internal/tenants"
)

type fakeTenantDirectory struct {
	tenant *tenants.Tenant
	err    error
}

func (f *fakeTenantDirectory) GetByID(context.Context, string) (*tenants.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tenant, nil
}

func TestMessengerForConfiguredTenant(t *testing.T) {
	provider := NewProvider(&fakeTenantDirectory{tenant: &tenants.Tenant{
		ID:                  "t-1",
		WhatsAppPhoneID:     "phone-1",
		WhatsAppAccessToken: "token-1",
	}}, "", nil)

	sender, ok, err := provider.MessengerFor(context.Background(), "t-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, sender)
}

func TestMessengerForTenantWithoutCredentials(t *testing.T) {
	provider := NewProvider(&fakeTenantDirectory{tenant: &tenants.Tenant{ID: "t-1"}}, "", nil)

	sender, ok, err := provider.MessengerFor(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, sender)
}

func TestMessengerForUnknownTenant(t *testing.T) {
	provider := NewProvider(&fakeTenantDirectory{err: tenants.ErrTenantNotFound}, "", nil)

	_, ok, err := provider.MessengerFor(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMessengerForPropagatesStoreError(t *testing.T) {
	provider := NewProvider(&fakeTenantDirectory{err: errors.New("db down")}, "", nil)

	_, _, err := provider.MessengerFor(context.Background(), "t-1")
	assert.Error(t, err)
}
