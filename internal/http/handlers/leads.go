package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/leads"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// conversationStarter opens the qualification dialogue for a new lead.
type conversationStarter interface {
	Start(ctx context.Context, lead *leads.Lead) (*conversation.Conversation, error)
}

// LeadsHandler accepts lead captures from marketing sites and kicks off
// qualification.
type LeadsHandler struct {
	repo    leads.Repository
	starter conversationStarter
	logger  *logging.Logger
}

// NewLeadsHandler creates the lead intake handler.
func NewLeadsHandler(repo leads.Repository, starter conversationStarter, logger *logging.Logger) *LeadsHandler {
	if repo == nil {
		panic("handlers: leads repository cannot be nil")
	}
	if starter == nil {
		panic("handlers: conversation starter cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadsHandler{repo: repo, starter: starter, logger: logger}
}

type createLeadResponse struct {
	Lead           *leads.Lead `json:"lead"`
	ConversationID string      `json:"conversation_id,omitempty"`
}

// Create captures a lead and opens its conversation. The lead is persisted
// even when the conversation cannot be started; qualification can be retried
// but a captured contact must never be lost.
func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req leads.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TenantID = r.Header.Get("X-Tenant-Id")

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, leads.ErrMissingTenantID) || errors.Is(err, leads.ErrMissingPhone) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create lead", "error", err, "tenant_id", req.TenantID)
		respondError(w, http.StatusInternalServerError, "failed to create lead")
		return
	}

	resp := createLeadResponse{Lead: lead}
	conv, err := h.starter.Start(r.Context(), lead)
	if err != nil {
		h.logger.Error("lead captured but conversation start failed",
			"error", err, "lead_id", lead.ID, "tenant_id", lead.TenantID)
	} else {
		resp.ConversationID = conv.ID
	}

	respondJSON(w, http.StatusCreated, resp)
}
