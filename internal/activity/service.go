package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lumora-ai/leadflow/pkg/logging"
)

// DB abstracts the pgx exec interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Notifier forwards selected events to the tenant's operators.
type Notifier interface {
	NotifyLeadEvent(ctx context.Context, tenantID string, ev Event) error
}

// Service persists activity events and optionally forwards them to a
// notifier. Both effects are best-effort: a sink failure is logged, never
// returned, so callers can treat publishing as fire-and-forget.
type Service struct {
	db       DB
	notifier Notifier
	logger   *logging.Logger
}

// NewService creates an activity service. notifier may be nil.
func NewService(db DB, notifier Notifier, logger *logging.Logger) *Service {
	if db == nil {
		panic("activity: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

var _ Publisher = (*Service)(nil)

// Publish records the event.
func (s *Service) Publish(ctx context.Context, tenantID string, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	if err := s.insert(ctx, tenantID, ev); err != nil {
		s.logger.Error("activity: failed to persist event",
			"error", err, "tenant_id", tenantID, "type", ev.Type, "lead_id", ev.LeadID)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyLeadEvent(ctx, tenantID, ev); err != nil {
			s.logger.Warn("activity: notifier failed",
				"error", err, "tenant_id", tenantID, "type", ev.Type)
		}
	}
}

func (s *Service) insert(ctx context.Context, tenantID string, ev Event) error {
	var detail []byte
	if len(ev.Detail) > 0 {
		var err error
		detail, err = json.Marshal(ev.Detail)
		if err != nil {
			return fmt.Errorf("activity: marshal detail: %w", err)
		}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO activity_events (id, tenant_id, type, lead_id, conversation_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), tenantID, ev.Type, ev.LeadID, ev.ConversationID, detail, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("activity: insert event: %w", err)
	}
	return nil
}
