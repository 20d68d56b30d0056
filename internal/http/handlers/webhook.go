package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/tenants"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// inboundPublisher enqueues inbound messages for asynchronous processing.
type inboundPublisher interface {
	EnqueueInbound(ctx context.Context, msg conversation.InboundMessage) error
}

// tenantResolver maps a WhatsApp phone number ID to a tenant.
type tenantResolver interface {
	GetByWhatsAppPhoneID(ctx context.Context, phoneID string) (*tenants.Tenant, error)
}

// WhatsAppWebhookHandler receives WhatsApp Cloud API callbacks. Messages are
// acknowledged immediately and processed off the request path; Meta retries
// on non-2xx, so the handler only fails on unreadable requests.
type WhatsAppWebhookHandler struct {
	publisher   inboundPublisher
	tenants     tenantResolver
	verifyToken string
	logger      *logging.Logger
}

// NewWhatsAppWebhookHandler creates the webhook handler.
func NewWhatsAppWebhookHandler(publisher inboundPublisher, resolver tenantResolver, verifyToken string, logger *logging.Logger) *WhatsAppWebhookHandler {
	if publisher == nil {
		panic("handlers: publisher cannot be nil")
	}
	if resolver == nil {
		panic("handlers: tenant resolver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		publisher:   publisher,
		tenants:     resolver,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Verify answers the Cloud API subscription handshake.
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != h.verifyToken || h.verifyToken == "" {
		respondError(w, http.StatusForbidden, "verification failed")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// webhookEnvelope mirrors the subset of the Cloud API callback we consume.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// HandleMessages ingests inbound customer messages.
func (h *WhatsAppWebhookHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			phoneID := change.Value.Metadata.PhoneNumberID
			if phoneID == "" || len(change.Value.Messages) == 0 {
				continue
			}

			tenant, err := h.tenants.GetByWhatsAppPhoneID(r.Context(), phoneID)
			if errors.Is(err, tenants.ErrTenantNotFound) {
				h.logger.Warn("webhook for unknown phone number id", "phone_id", phoneID)
				continue
			}
			if err != nil {
				h.logger.Error("failed to resolve webhook tenant", "error", err, "phone_id", phoneID)
				respondError(w, http.StatusInternalServerError, "tenant lookup failed")
				return
			}

			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					h.logger.Debug("skipping non-text webhook message",
						"type", msg.Type, "tenant_id", tenant.ID)
					continue
				}
				inbound := conversation.InboundMessage{
					TenantID:      tenant.ID,
					From:          "+" + msg.From,
					Body:          msg.Text.Body,
					ProviderMsgID: msg.ID,
					ReceivedAt:    parseWebhookTimestamp(msg.Timestamp),
				}
				if err := h.publisher.EnqueueInbound(r.Context(), inbound); err != nil {
					h.logger.Error("failed to enqueue inbound message",
						"error", err, "tenant_id", tenant.ID)
					respondError(w, http.StatusInternalServerError, "enqueue failed")
					return
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

func parseWebhookTimestamp(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
