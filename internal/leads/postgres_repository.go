package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: db required")
	}
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, tenant_id, name, phone, source, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.TenantID,
		req.Name,
		req.Phone,
		req.Source,
		string(StatusNew),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:        id.String(),
		TenantID:  req.TenantID,
		Name:      req.Name,
		Phone:     req.Phone,
		Source:    req.Source,
		Status:    StatusNew,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// GetByID fetches a lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, tenant_id, name, phone, source, status, created_at, updated_at
		FROM leads
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var lead Lead
	var status string
	if err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Name,
		&lead.Phone,
		&lead.Source,
		&status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	lead.Status = Status(status)
	return &lead, nil
}

// UpdateStatus sets the lead's business status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET status = $1, updated_at = now()
		WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("leads: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}
