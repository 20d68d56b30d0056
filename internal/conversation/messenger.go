package conversation

import "context"

// TextSender delivers a single outbound text message to a customer.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// MessengerResolver produces a tenant-scoped sender. ok is false when the
// tenant has no messaging channel configured; callers treat that as a
// non-retryable skip, not an error.
type MessengerResolver interface {
	MessengerFor(ctx context.Context, tenantID string) (sender TextSender, ok bool, err error)
}

// ReminderPlanner schedules the follow-up reminder jobs after the initial
// outbound contact. Implementations must be idempotent per lead.
type ReminderPlanner interface {
	PlanReminders(ctx context.Context, leadID, conversationID string) error
}
