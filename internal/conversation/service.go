package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumora-ai/leadflow/internal/activity"
	"github.com/lumora-ai/leadflow/internal/leads"
	"github.com/lumora-ai/leadflow/internal/observability/metrics"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

const transcriptContextLimit = 20

// tenantDirectory is the subset of the tenant store the service needs.
type tenantDirectory interface {
	GetByID(ctx context.Context, id string) (*tenants.Tenant, error)
}

// conversationStore is the subset of Store the service uses; narrowed so
// tests can substitute a fake.
type conversationStore interface {
	Create(ctx context.Context, leadID, tenantID string) (*Conversation, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	FindActiveByLead(ctx context.Context, leadID string) (*Conversation, error)
	FindByPhone(ctx context.Context, tenantID, phone string) (*Conversation, error)
	SaveTurn(ctx context.Context, id string, info LeadInfo, state State) error
}

// Service drives the qualification dialogue: it opens conversations for new
// leads and processes inbound customer messages turn by turn.
type Service struct {
	store      conversationStore
	leadsRepo  leads.Repository
	tenantsDir tenantDirectory
	extractor  Extractor
	messengers MessengerResolver
	transcript *TranscriptStore
	planner    ReminderPlanner
	activity   activity.Publisher
	metrics    *metrics.PipelineMetrics
	logger     *logging.Logger
}

// ServiceOption customizes optional collaborators.
type ServiceOption func(*Service)

// WithTranscriptStore wires a Redis transcript store for classifier context.
func WithTranscriptStore(store *TranscriptStore) ServiceOption {
	return func(s *Service) { s.transcript = store }
}

// WithReminderPlanner wires the reminder scheduler invoked after the initial
// outbound contact.
func WithReminderPlanner(planner ReminderPlanner) ServiceOption {
	return func(s *Service) { s.planner = planner }
}

// WithActivityPublisher wires the activity/notification sink.
func WithActivityPublisher(pub activity.Publisher) ServiceOption {
	return func(s *Service) { s.activity = pub }
}

// WithMetrics wires pipeline metrics.
func WithMetrics(m *metrics.PipelineMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the conversation service.
func NewService(store conversationStore, leadsRepo leads.Repository, tenantsDir tenantDirectory, extractor Extractor, messengers MessengerResolver, logger *logging.Logger, opts ...ServiceOption) *Service {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if leadsRepo == nil {
		panic("conversation: leads repository cannot be nil")
	}
	if extractor == nil {
		panic("conversation: extractor cannot be nil")
	}
	if messengers == nil {
		panic("conversation: messenger resolver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Service{
		store:      store,
		leadsRepo:  leadsRepo,
		tenantsDir: tenantsDir,
		extractor:  extractor,
		messengers: messengers,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a conversation for a freshly captured lead, sends the initial
// greeting, and plans the follow-up reminders. The conversation starts in
// awaiting_response until the customer replies. A lead that already has an
// open conversation gets that one back untouched, so a resubmitted intake
// form cannot greet the customer twice.
func (s *Service) Start(ctx context.Context, lead *leads.Lead) (*Conversation, error) {
	existing, err := s.store.FindActiveByLead(ctx, lead.ID)
	if err == nil {
		s.logger.Info("conversation: lead already has an open conversation",
			"lead_id", lead.ID, "conversation_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	conv, err := s.store.Create(ctx, lead.ID, lead.TenantID)
	if err != nil {
		return nil, err
	}

	sender, ok, err := s.messengers.MessengerFor(ctx, lead.TenantID)
	if err != nil {
		return nil, err
	}
	if ok {
		body := Greeting(s.tenantName(ctx, lead.TenantID))
		if err := sender.SendText(ctx, lead.Phone, body); err != nil {
			return nil, fmt.Errorf("conversation: initial greeting: %w", err)
		}
		s.metrics.ObserveOutbound("greeting")
		s.appendTranscript(ctx, conv.ID, TranscriptMessage{Role: TranscriptRoleAssistant, Body: body})
	} else {
		s.logger.Warn("conversation: no messaging client for tenant, greeting skipped",
			"tenant_id", lead.TenantID, "lead_id", lead.ID)
	}

	if s.planner != nil {
		if err := s.planner.PlanReminders(ctx, lead.ID, conv.ID); err != nil {
			return nil, fmt.Errorf("conversation: plan reminders: %w", err)
		}
	}

	return conv, nil
}

// InboundMessage is one customer message delivered by the channel webhook.
type InboundMessage struct {
	TenantID       string    `json:"tenant_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	From           string    `json:"from"`
	Body           string    `json:"body"`
	ProviderMsgID  string    `json:"provider_message_id,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// ProcessInbound runs one qualification turn: extract, merge, advance the
// state machine, persist, and reply when the new state solicits a slot.
func (s *Service) ProcessInbound(ctx context.Context, msg InboundMessage) error {
	conv, err := s.resolveConversation(ctx, msg)
	if errors.Is(err, ErrConversationNotFound) {
		s.logger.Info("conversation: inbound message without conversation, skipping",
			"tenant_id", msg.TenantID, "from", msg.From)
		s.metrics.ObserveInbound("orphan")
		return nil
	}
	if err != nil {
		return err
	}

	s.appendTranscript(ctx, conv.ID, TranscriptMessage{Role: TranscriptRoleUser, Body: msg.Body})

	if IsTerminal(conv.State) {
		s.logger.Debug("conversation: inbound message on resolved conversation",
			"conversation_id", conv.ID, "state", conv.State)
		s.metrics.ObserveInbound("terminal")
		return nil
	}

	prior, err := s.transcript.Recent(ctx, conv.ID, transcriptContextLimit)
	if err != nil {
		s.logger.Warn("conversation: transcript unavailable, extracting without context",
			"error", err, "conversation_id", conv.ID)
	}

	extracted, err := s.extractor.Extract(ctx, msg.Body, prior, conv.State)
	if err != nil {
		// A failed extraction must not block the conversation; the next
		// turn can try again.
		s.logger.Warn("conversation: extraction failed, degrading",
			"error", err, "conversation_id", conv.ID)
		extracted = DegradedExtraction()
	}

	merged := MergeLeadInfo(conv.Info, extracted)
	next := NextState(conv.State, merged)

	if err := s.store.SaveTurn(ctx, conv.ID, merged, next); err != nil {
		return err
	}

	if conv.State == StateAwaitingResponse && !IsTerminal(next) {
		if err := s.leadsRepo.UpdateStatus(ctx, conv.LeadID, leads.StatusEngaged); err != nil {
			s.logger.Warn("conversation: failed to mark lead engaged", "error", err, "lead_id", conv.LeadID)
		}
	}

	if next == StateCompleted {
		return s.completeQualification(ctx, conv)
	}

	if ShouldSendResponse(next) {
		if err := s.sendSolicitation(ctx, conv, next, msg.From); err != nil {
			return err
		}
	}

	s.metrics.ObserveInbound("processed")
	return nil
}

func (s *Service) resolveConversation(ctx context.Context, msg InboundMessage) (*Conversation, error) {
	if msg.ConversationID != "" {
		return s.store.GetByID(ctx, msg.ConversationID)
	}
	return s.store.FindByPhone(ctx, msg.TenantID, msg.From)
}

func (s *Service) completeQualification(ctx context.Context, conv *Conversation) error {
	if err := s.leadsRepo.UpdateStatus(ctx, conv.LeadID, leads.StatusQualified); err != nil {
		s.logger.Warn("conversation: failed to mark lead qualified", "error", err, "lead_id", conv.LeadID)
	}
	if s.activity != nil {
		s.activity.Publish(ctx, conv.TenantID, activity.Event{
			Type:           activity.EventLeadQualified,
			LeadID:         conv.LeadID,
			ConversationID: conv.ID,
			OccurredAt:     time.Now().UTC(),
		})
	}
	s.metrics.ObserveQualified()
	s.metrics.ObserveInbound("completed")
	s.logger.Info("conversation: qualification completed",
		"conversation_id", conv.ID, "lead_id", conv.LeadID)
	return nil
}

func (s *Service) sendSolicitation(ctx context.Context, conv *Conversation, state State, to string) error {
	body, ok := SolicitationFor(state)
	if !ok {
		return nil
	}

	sender, ok, err := s.messengers.MessengerFor(ctx, conv.TenantID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("conversation: no messaging client for tenant, reply skipped",
			"tenant_id", conv.TenantID, "conversation_id", conv.ID)
		return nil
	}

	if to == "" {
		lead, err := s.leadsRepo.GetByID(ctx, conv.LeadID)
		if err != nil {
			return fmt.Errorf("conversation: resolve reply destination: %w", err)
		}
		to = lead.Phone
	}

	if err := sender.SendText(ctx, to, body); err != nil {
		return fmt.Errorf("conversation: send solicitation: %w", err)
	}
	s.metrics.ObserveOutbound("solicit")
	s.appendTranscript(ctx, conv.ID, TranscriptMessage{Role: TranscriptRoleAssistant, Body: body})
	return nil
}

func (s *Service) appendTranscript(ctx context.Context, conversationID string, msg TranscriptMessage) {
	if err := s.transcript.Append(ctx, conversationID, msg); err != nil {
		s.logger.Warn("conversation: failed to append transcript",
			"error", err, "conversation_id", conversationID)
	}
}

func (s *Service) tenantName(ctx context.Context, tenantID string) string {
	if s.tenantsDir == nil {
		return ""
	}
	tenant, err := s.tenantsDir.GetByID(ctx, tenantID)
	if err != nil {
		s.logger.Warn("conversation: failed to load tenant", "error", err, "tenant_id", tenantID)
		return ""
	}
	return tenant.Name
}
