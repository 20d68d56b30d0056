package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads tenant configuration from Postgres.
type Store struct {
	db DB
}

// NewStore creates a tenant store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("tenants: db required")
	}
	return &Store{db: db}
}

// GetByID fetches a tenant.
func (s *Store) GetByID(ctx context.Context, id string) (*Tenant, error) {
	query := `
		SELECT id, name, whatsapp_phone_id, whatsapp_access_token, notify_email, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRow(ctx, query, id))
}

// GetByWhatsAppPhoneID resolves the tenant owning a WhatsApp phone number ID.
// Inbound webhooks only carry the phone number ID, not our tenant ID.
func (s *Store) GetByWhatsAppPhoneID(ctx context.Context, phoneID string) (*Tenant, error) {
	query := `
		SELECT id, name, whatsapp_phone_id, whatsapp_access_token, notify_email, created_at, updated_at
		FROM tenants
		WHERE whatsapp_phone_id = $1
	`
	return s.scanOne(s.db.QueryRow(ctx, query, phoneID))
}

func (s *Store) scanOne(row pgx.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.WhatsAppPhoneID,
		&t.WhatsAppAccessToken,
		&t.NotifyEmail,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenants: select failed: %w", err)
	}
	return &t, nil
}
