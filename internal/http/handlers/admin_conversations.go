package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

// conversationReader is the read side of the conversation store.
type conversationReader interface {
	GetByID(ctx context.Context, id string) (*conversation.Conversation, error)
}

// transcriptReader fetches recent transcript messages for a conversation.
type transcriptReader interface {
	Recent(ctx context.Context, conversationID string, limit int64) ([]conversation.TranscriptMessage, error)
}

// AdminConversationsHandler exposes conversation state to operators.
type AdminConversationsHandler struct {
	conversations conversationReader
	transcripts   transcriptReader
	logger        *logging.Logger
}

// NewAdminConversationsHandler creates the admin conversation handler.
// transcripts may be nil when Redis is not configured.
func NewAdminConversationsHandler(conversations conversationReader, transcripts transcriptReader, logger *logging.Logger) *AdminConversationsHandler {
	if conversations == nil {
		panic("handlers: conversation store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminConversationsHandler{conversations: conversations, transcripts: transcripts, logger: logger}
}

type conversationDetail struct {
	Conversation *conversation.Conversation       `json:"conversation"`
	Transcript   []conversation.TranscriptMessage `json:"transcript,omitempty"`
}

// Get returns one conversation with its recent transcript.
func (h *AdminConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if id == "" {
		respondError(w, http.StatusBadRequest, "conversation id required")
		return
	}

	conv, err := h.conversations.GetByID(r.Context(), id)
	if errors.Is(err, conversation.ErrConversationNotFound) {
		respondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load conversation", "error", err, "conversation_id", id)
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	detail := conversationDetail{Conversation: conv}
	if h.transcripts != nil {
		transcript, err := h.transcripts.Recent(r.Context(), id, 50)
		if err != nil {
			h.logger.Warn("failed to load transcript", "error", err, "conversation_id", id)
		} else {
			detail.Transcript = transcript
		}
	}

	respondJSON(w, http.StatusOK, detail)
}
