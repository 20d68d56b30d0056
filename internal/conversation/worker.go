package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lumora-ai/leadflow/pkg/logging"
)

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// Worker consumes inbound-message jobs from the queue and runs the
// qualification turn through the service.
type Worker struct {
	service *Service
	queue   queueClient
	logger  *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker constructs a queue consumer around the provided service.
func NewWorker(service *Service, queue queueClient, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if service == nil {
		panic("conversation: service cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		service: service,
		queue:   queue,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive inbound jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("dropping malformed queue payload", "error", err, "message_id", msg.ID)
		w.deleteMessage(msg)
		return
	}

	if payload.Kind != jobTypeInbound {
		w.logger.Error("dropping unknown job kind", "kind", payload.Kind, "message_id", msg.ID)
		w.deleteMessage(msg)
		return
	}

	if err := w.service.ProcessInbound(ctx, payload.Inbound); err != nil {
		// Leave the message on the queue; SQS redelivers after the
		// visibility timeout and the turn is retried.
		w.logger.Error("inbound turn failed, leaving for redelivery",
			"error", err, "job_id", payload.ID, "tenant_id", payload.Inbound.TenantID)
		return
	}

	w.deleteMessage(msg)
}

func (w *Worker) deleteMessage(msg queueMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("failed to delete queue message", "error", err, "message_id", msg.ID)
	}
}
