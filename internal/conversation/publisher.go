package conversation

import (
	"context"
	"fmt"

	"github.com/lumora-ai/leadflow/pkg/logging"
)

// Publisher enqueues inbound messages for asynchronous processing.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueInbound publishes an inbound customer message job.
func (p *Publisher) EnqueueInbound(ctx context.Context, msg InboundMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}

	payload, body, err := encodePayload(queuePayload{Kind: jobTypeInbound, Inbound: msg})
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: failed to enqueue inbound message: %w", err)
	}

	p.logger.Debug("inbound message enqueued", "job_id", payload.ID, "tenant_id", msg.TenantID)
	return nil
}
