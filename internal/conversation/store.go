package conversation

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

// Store persists lead conversations. All writes are single-record
// read-modify-write operations; the persisted row is the only coordination
// point between the inbound-message path and the reminder path.
type Store struct {
	db DB
}

// NewStore creates a conversation store.
func NewStore(db DB) *Store {
	if db == nil {
		panic("conversation: db required")
	}
	return &Store{db: db}
}

const conversationColumns = `id, lead_id, tenant_id, state, name, need, contact_preference, confidence, reminder1_sent_at, reminder2_sent_at, created_at, updated_at`

// Create inserts a new conversation in the initial awaiting_response state.
func (s *Store) Create(ctx context.Context, leadID, tenantID string) (*Conversation, error) {
	id := uuid.New()
	query := `
		INSERT INTO lead_conversations (id, lead_id, tenant_id, state, confidence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := s.db.QueryRow(ctx, query,
		id, leadID, tenantID, string(StateAwaitingResponse), string(ConfidenceLow),
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("conversation: insert failed: %w", err)
	}
	return &Conversation{
		ID:        id.String(),
		LeadID:    leadID,
		TenantID:  tenantID,
		State:     StateAwaitingResponse,
		Info:      LeadInfo{Confidence: ConfidenceLow},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// GetByID fetches a conversation.
func (s *Store) GetByID(ctx context.Context, id string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM lead_conversations WHERE id = $1`
	return s.scanOne(s.db.QueryRow(ctx, query, id))
}

// FindActiveByLead returns the lead's non-terminal conversation, if any.
func (s *Store) FindActiveByLead(ctx context.Context, leadID string) (*Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM lead_conversations
		WHERE lead_id = $1 AND state NOT IN ('completed', 'unresponsive')
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRow(ctx, query, leadID))
}

// FindByPhone resolves the most recent conversation for a customer phone
// within a tenant. Used by the inbound webhook path, which only knows the
// sender's number.
func (s *Store) FindByPhone(ctx context.Context, tenantID, phone string) (*Conversation, error) {
	query := `
		SELECT c.id, c.lead_id, c.tenant_id, c.state, c.name, c.need, c.contact_preference, c.confidence,
		       c.reminder1_sent_at, c.reminder2_sent_at, c.created_at, c.updated_at
		FROM lead_conversations c
		JOIN leads l ON l.id = c.lead_id
		WHERE c.tenant_id = $1 AND l.phone = $2
		ORDER BY c.created_at DESC
		LIMIT 1
	`
	return s.scanOne(s.db.QueryRow(ctx, query, tenantID, phone))
}

// SaveTurn persists the merged slot record and the computed next state after
// an inbound message.
func (s *Store) SaveTurn(ctx context.Context, id string, info LeadInfo, state State) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE lead_conversations
		SET state = $1, name = $2, need = $3, contact_preference = $4, confidence = $5, updated_at = now()
		WHERE id = $6`,
		string(state), info.Name, info.Need, info.ContactPreference, string(info.Confidence), id)
	if err != nil {
		return fmt.Errorf("conversation: save turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// MarkReminderSent records the reminder-N timestamp. The write is conditional
// on the slot still being empty, so a redelivered job observes applied=false
// and performs no further effect.
func (s *Store) MarkReminderSent(ctx context.Context, id string, n int, at time.Time) (bool, error) {
	var column string
	switch n {
	case 1:
		column = "reminder1_sent_at"
	case 2:
		column = "reminder2_sent_at"
	default:
		return false, fmt.Errorf("conversation: invalid reminder number %d", n)
	}
	query := fmt.Sprintf(`
		UPDATE lead_conversations
		SET %s = $1, updated_at = $1
		WHERE id = $2 AND %s IS NULL`, column, column)
	tag, err := s.db.Exec(ctx, query, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("conversation: mark reminder %d sent: %w", n, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkUnresponsive transitions the conversation into the unresponsive sink.
// The write is conditional on the state still being non-terminal: a customer
// reply that completed the conversation a moment earlier wins the race and
// the timeout becomes a no-op.
func (s *Store) MarkUnresponsive(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE lead_conversations
		SET state = $1, updated_at = now()
		WHERE id = $2 AND state NOT IN ('completed', 'unresponsive')`,
		string(StateUnresponsive), id)
	if err != nil {
		return false, fmt.Errorf("conversation: mark unresponsive: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) scanOne(row pgx.Row) (*Conversation, error) {
	var c Conversation
	var state, confidence string
	if err := row.Scan(
		&c.ID,
		&c.LeadID,
		&c.TenantID,
		&state,
		&c.Info.Name,
		&c.Info.Need,
		&c.Info.ContactPreference,
		&confidence,
		&c.Reminder1SentAt,
		&c.Reminder2SentAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation: scan: %w", err)
	}
	c.State = State(state)
	c.Info.Confidence = Confidence(confidence)
	return &c, nil
}
