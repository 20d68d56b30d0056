package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "lead_transcript:"

const (
	TranscriptRoleUser      = "user"
	TranscriptRoleAssistant = "assistant"
)

// TranscriptMessage is one message in a conversation's rolling transcript.
// The transcript feeds prior context to the classifier; it is not the system
// of record for qualification state.
type TranscriptMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore keeps a capped per-conversation message list in Redis.
type TranscriptStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
	ttl         time.Duration
}

// NewTranscriptStore creates a transcript store. Returns nil when Redis is
// not configured; callers treat a nil store as "no transcript context".
func NewTranscriptStore(redisClient *redis.Client) *TranscriptStore {
	if redisClient == nil {
		return nil
	}
	return &TranscriptStore{
		redis:       redisClient,
		tracer:      otel.Tracer("leadflow.internal.conversation.transcript"),
		maxMessages: 100,
		ttl:         30 * 24 * time.Hour,
	}
}

// Append pushes a message onto the conversation transcript and trims it to
// the configured cap.
func (s *TranscriptStore) Append(ctx context.Context, conversationID string, msg TranscriptMessage) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if conversationID == "" {
		return errors.New("conversation: transcript conversationID required")
	}
	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("conversation: marshal transcript message: %w", err)
	}

	key := transcriptKeyPrefix + conversationID
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("conversation: append transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit most-recent messages, oldest first.
func (s *TranscriptStore) Recent(ctx context.Context, conversationID string, limit int64) ([]TranscriptMessage, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	ctx, span := s.tracer.Start(ctx, "transcript.recent")
	defer span.End()

	key := transcriptKeyPrefix + conversationID
	raw, err := s.redis.LRange(ctx, key, -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("conversation: read transcript: %w", err)
	}

	messages := make([]TranscriptMessage, 0, len(raw))
	for _, item := range raw {
		var msg TranscriptMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
