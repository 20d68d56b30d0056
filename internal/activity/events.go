package activity

import (
	"context"
	"time"
)

// Event types emitted by the qualification pipeline.
const (
	EventLeadQualified    = "lead_qualified"
	EventLeadUnresponsive = "lead_unresponsive"
	EventReminderSent     = "reminder_sent"
)

// Event describes something that happened to a lead. Events are
// fire-and-forget from the publisher's perspective.
type Event struct {
	Type           string            `json:"type"`
	LeadID         string            `json:"lead_id"`
	ConversationID string            `json:"conversation_id"`
	Detail         map[string]string `json:"detail,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// Publisher records activity events for a tenant. Implementations own their
// failure handling; callers never see an error.
type Publisher interface {
	Publish(ctx context.Context, tenantID string, ev Event)
}
