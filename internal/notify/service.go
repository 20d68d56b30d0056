package notify

import (
	"context"
	"fmt"

	"github.com/lumora-ai/leadflow/internal/activity"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// tenantDirectory is the subset of the tenant store the notifier needs.
type tenantDirectory interface {
	GetByID(ctx context.Context, id string) (*tenants.Tenant, error)
}

// Service emails tenant operators about lead milestones. Only events an
// operator acts on become email; reminder traffic stays in the activity log.
type Service struct {
	email   EmailSender
	tenants tenantDirectory
	logger  *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, directory tenantDirectory, logger *logging.Logger) *Service {
	if directory == nil {
		panic("notify: tenant directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, tenants: directory, logger: logger}
}

var _ activity.Notifier = (*Service)(nil)

// NotifyLeadEvent emails the tenant's operator address for qualified and
// unresponsive leads. Tenants without a notify address are skipped.
func (s *Service) NotifyLeadEvent(ctx context.Context, tenantID string, ev activity.Event) error {
	if s.email == nil {
		return nil
	}

	subject, body, ok := composeLeadEvent(ev)
	if !ok {
		return nil
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("notify: load tenant: %w", err)
	}
	if tenant.NotifyEmail == "" {
		s.logger.Debug("notify: tenant has no notify address, skipping",
			"tenant_id", tenantID, "type", ev.Type)
		return nil
	}

	msg := EmailMessage{
		To:      tenant.NotifyEmail,
		ToName:  tenant.Name,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("notify: lead event email sent", "tenant_id", tenantID, "type", ev.Type, "lead_id", ev.LeadID)
	return nil
}

func composeLeadEvent(ev activity.Event) (subject, body string, ok bool) {
	switch ev.Type {
	case activity.EventLeadQualified:
		subject = "New qualified lead"
		body = fmt.Sprintf(`A lead finished qualification and is ready for follow-up.

Lead ID: %s
Conversation: %s
Qualified at: %s

Open your dashboard for the captured details.`,
			ev.LeadID, ev.ConversationID, ev.OccurredAt.Format("January 2, 2006 at 3:04 PM"))
		return subject, body, true
	case activity.EventLeadUnresponsive:
		subject = "Lead went quiet"
		body = fmt.Sprintf(`A lead stopped responding after two reminders.

Lead ID: %s
Conversation: %s
Closed at: %s

You can still reach out manually if the lead looked promising.`,
			ev.LeadID, ev.ConversationID, ev.OccurredAt.Format("January 2, 2006 at 3:04 PM"))
		return subject, body, true
	}
	return "", "", false
}
