package reminders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lumora-ai/leadflow/internal/activity"
	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/leads"
	"github.com/lumora-ai/leadflow/internal/observability/metrics"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// conversationStore is the subset of the conversation store the handlers use.
type conversationStore interface {
	GetByID(ctx context.Context, id string) (*conversation.Conversation, error)
	MarkReminderSent(ctx context.Context, id string, n int, at time.Time) (bool, error)
	MarkUnresponsive(ctx context.Context, id string) (bool, error)
}

// unresponsivePlanner arms the final timeout once reminder 2 is out.
type unresponsivePlanner interface {
	ScheduleUnresponsiveCheck(ctx context.Context, leadID, conversationID string) error
}

// Handlers executes due reminder jobs. Every handler re-reads the
// conversation and checks its preconditions before acting: jobs can be
// delivered late, twice, or after the customer already replied, and in all
// of those cases the correct outcome is a quiet no-op.
type Handlers struct {
	conversations conversationStore
	leadsRepo     leads.Repository
	messengers    conversation.MessengerResolver
	planner       unresponsivePlanner
	activity      activity.Publisher
	metrics       *metrics.PipelineMetrics
	logger        *logging.Logger

	now func() time.Time
}

// HandlerOption customizes optional collaborators.
type HandlerOption func(*Handlers)

// WithActivityPublisher wires the activity/notification sink.
func WithActivityPublisher(pub activity.Publisher) HandlerOption {
	return func(h *Handlers) { h.activity = pub }
}

// WithMetrics wires pipeline metrics.
func WithMetrics(m *metrics.PipelineMetrics) HandlerOption {
	return func(h *Handlers) { h.metrics = m }
}

// NewHandlers constructs the reminder job handlers.
func NewHandlers(conversations conversationStore, leadsRepo leads.Repository, messengers conversation.MessengerResolver, planner unresponsivePlanner, logger *logging.Logger, opts ...HandlerOption) *Handlers {
	if conversations == nil {
		panic("reminders: conversation store cannot be nil")
	}
	if leadsRepo == nil {
		panic("reminders: leads repository cannot be nil")
	}
	if messengers == nil {
		panic("reminders: messenger resolver cannot be nil")
	}
	if planner == nil {
		panic("reminders: unresponsive planner cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	h := &Handlers{
		conversations: conversations,
		leadsRepo:     leadsRepo,
		messengers:    messengers,
		planner:       planner,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleSendReminder delivers reminder N if the conversation still needs it.
// Preconditions that fail return nil: the job is consumed without effect.
// Only transient failures (messaging, storage) surface as errors so the
// worker retries.
func (h *Handlers) HandleSendReminder(ctx context.Context, payload JobPayload) error {
	n := payload.ReminderNumber
	if n != 1 && n != 2 {
		return fmt.Errorf("reminders: invalid reminder number %d", n)
	}

	conv, err := h.conversations.GetByID(ctx, payload.ConversationID)
	if errors.Is(err, conversation.ErrConversationNotFound) {
		h.logger.Info("reminder for missing conversation, dropping",
			"conversation_id", payload.ConversationID, "reminder", n)
		return nil
	}
	if err != nil {
		return err
	}

	if conversation.IsTerminal(conv.State) {
		h.logger.Debug("reminder on resolved conversation, dropping",
			"conversation_id", conv.ID, "state", conv.State, "reminder", n)
		return nil
	}

	if conv.ReminderSentAt(n) != nil {
		h.logger.Debug("reminder already recorded, dropping",
			"conversation_id", conv.ID, "reminder", n)
		// A prior delivery may have recorded the send and then failed before
		// arming the timeout; without the re-arm the redelivery would drop
		// here and the conversation would never close out. Scheduling is
		// keyed per lead, so repeating it is a no-op when the job exists.
		if n == 2 {
			return h.planner.ScheduleUnresponsiveCheck(ctx, conv.LeadID, conv.ID)
		}
		return nil
	}

	sender, ok, err := h.messengers.MessengerFor(ctx, conv.TenantID)
	if err != nil {
		return err
	}
	if !ok {
		h.logger.Warn("no messaging client for tenant, reminder skipped",
			"tenant_id", conv.TenantID, "conversation_id", conv.ID, "reminder", n)
		return nil
	}

	lead, err := h.leadsRepo.GetByID(ctx, conv.LeadID)
	if err != nil {
		return fmt.Errorf("reminders: resolve reminder destination: %w", err)
	}

	if err := sender.SendText(ctx, lead.Phone, conversation.ReminderText(n)); err != nil {
		return fmt.Errorf("reminders: send reminder %d: %w", n, err)
	}

	applied, err := h.conversations.MarkReminderSent(ctx, conv.ID, n, h.now().UTC())
	if err != nil {
		return err
	}
	if !applied {
		// Another delivery of the same job won the write after we read.
		// The customer got two texts; the record stays consistent.
		h.logger.Warn("reminder send raced a duplicate delivery",
			"conversation_id", conv.ID, "reminder", n)
		return nil
	}

	h.metrics.ObserveReminderSent(strconv.Itoa(n))
	if h.activity != nil {
		h.activity.Publish(ctx, conv.TenantID, activity.Event{
			Type:           activity.EventReminderSent,
			LeadID:         conv.LeadID,
			ConversationID: conv.ID,
			Detail:         map[string]string{"reminder": strconv.Itoa(n)},
			OccurredAt:     h.now().UTC(),
		})
	}
	h.logger.Info("reminder sent", "conversation_id", conv.ID, "lead_id", conv.LeadID, "reminder", n)

	if n == 2 {
		if err := h.planner.ScheduleUnresponsiveCheck(ctx, conv.LeadID, conv.ID); err != nil {
			return err
		}
	}
	return nil
}

// HandleMarkUnresponsive closes a conversation whose reminders ran out. The
// transition only applies when both reminders were actually delivered and
// the conversation is still mid-dialogue; a reply that resolved it first
// wins the race.
func (h *Handlers) HandleMarkUnresponsive(ctx context.Context, payload JobPayload) error {
	conv, err := h.conversations.GetByID(ctx, payload.ConversationID)
	if errors.Is(err, conversation.ErrConversationNotFound) {
		h.logger.Info("unresponsive check for missing conversation, dropping",
			"conversation_id", payload.ConversationID)
		return nil
	}
	if err != nil {
		return err
	}

	if conversation.IsTerminal(conv.State) {
		h.logger.Debug("unresponsive check on resolved conversation, dropping",
			"conversation_id", conv.ID, "state", conv.State)
		return nil
	}

	if conv.Reminder1SentAt == nil || conv.Reminder2SentAt == nil {
		h.logger.Info("unresponsive check before reminders exhausted, dropping",
			"conversation_id", conv.ID)
		return nil
	}

	applied, err := h.conversations.MarkUnresponsive(ctx, conv.ID)
	if err != nil {
		return err
	}
	if !applied {
		h.logger.Debug("conversation resolved before timeout applied", "conversation_id", conv.ID)
		return nil
	}

	if err := h.leadsRepo.UpdateStatus(ctx, conv.LeadID, leads.StatusUnresponsive); err != nil {
		h.logger.Warn("failed to mark lead unresponsive", "error", err, "lead_id", conv.LeadID)
	}
	if h.activity != nil {
		h.activity.Publish(ctx, conv.TenantID, activity.Event{
			Type:           activity.EventLeadUnresponsive,
			LeadID:         conv.LeadID,
			ConversationID: conv.ID,
			OccurredAt:     h.now().UTC(),
		})
	}
	h.metrics.ObserveUnresponsive()
	h.logger.Info("conversation marked unresponsive", "conversation_id", conv.ID, "lead_id", conv.LeadID)
	return nil
}
