package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lumora-ai/leadflow/internal/observability/metrics"
	"github.com/lumora-ai/leadflow/pkg/logging"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultWorkerCount  = 2
	defaultBatchSize    = 10
	maxJobAttempts      = 5
	retryBackoffBase    = time.Minute
	maxRetryBackoff     = 30 * time.Minute
)

// jobQueue is the subset of JobStore the worker uses.
type jobQueue interface {
	ListDue(ctx context.Context, limit int) ([]Job, error)
	Claim(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, cause string) error
	MarkFailed(ctx context.Context, id string, cause string) error
}

// jobHandlers dispatches a claimed job by kind.
type jobHandlers interface {
	HandleSendReminder(ctx context.Context, payload JobPayload) error
	HandleMarkUnresponsive(ctx context.Context, payload JobPayload) error
}

// Worker polls the scheduled_jobs table and executes due jobs. Multiple
// worker processes can run against the same table; the conditional claim
// update keeps each job with a single executor.
type Worker struct {
	jobs     jobQueue
	handlers jobHandlers
	logger   *logging.Logger
	metrics  *metrics.PipelineMetrics

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	pollInterval time.Duration
	workers      int
	batchSize    int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithPollInterval sets how often each poller checks for due jobs.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if interval > 0 {
			cfg.pollInterval = interval
		}
	}
}

// WithWorkerCount sets the number of concurrent poller goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithBatchSize sets how many due jobs one poll fetches.
func WithBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size > 0 {
			cfg.batchSize = size
		}
	}
}

// NewWorker constructs a scheduled-job worker.
func NewWorker(jobs jobQueue, handlers jobHandlers, logger *logging.Logger, m *metrics.PipelineMetrics, opts ...WorkerOption) *Worker {
	if jobs == nil {
		panic("reminders: job store cannot be nil")
	}
	if handlers == nil {
		panic("reminders: handlers cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		pollInterval: defaultPollInterval,
		workers:      defaultWorkerCount,
		batchSize:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{jobs: jobs, handlers: handlers, logger: logger, metrics: m, cfg: cfg}
}

// Start launches poller goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all poller goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("reminder worker started", "worker_id", workerID)

	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	w.drain(ctx, workerID)
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("reminder worker stopping", "worker_id", workerID)
			return
		case <-ticker.C:
			w.drain(ctx, workerID)
		}
	}
}

func (w *Worker) drain(ctx context.Context, workerID int) {
	jobs, err := w.jobs.ListDue(ctx, w.cfg.batchSize)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Error("failed to list due jobs", "error", err, "worker_id", workerID)
		return
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := w.jobs.Claim(ctx, job.ID)
		if err != nil {
			w.logger.Error("failed to claim job", "error", err, "job_id", job.ID)
			continue
		}
		if !claimed {
			continue
		}
		// Claim bumped attempts past our snapshot.
		job.Attempts++
		w.execute(ctx, job)
	}
}

func (w *Worker) execute(ctx context.Context, job Job) {
	start := time.Now()
	err := w.dispatch(ctx, job)
	elapsed := time.Since(start).Seconds()

	if err == nil {
		if markErr := w.jobs.MarkCompleted(ctx, job.ID); markErr != nil {
			w.logger.Error("failed to mark job completed", "error", markErr, "job_id", job.ID)
		}
		w.metrics.ObserveJob(string(job.Kind), "ok", elapsed)
		return
	}

	if job.Attempts >= maxJobAttempts {
		w.logger.Error("job failed permanently", "error", err, "job_id", job.ID,
			"kind", job.Kind, "attempts", job.Attempts)
		if markErr := w.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to mark job failed", "error", markErr, "job_id", job.ID)
		}
		w.metrics.ObserveJob(string(job.Kind), "failed", elapsed)
		return
	}

	runAt := time.Now().UTC().Add(retryBackoff(job.Attempts))
	w.logger.Warn("job failed, rescheduling", "error", err, "job_id", job.ID,
		"kind", job.Kind, "attempts", job.Attempts, "run_at", runAt)
	if markErr := w.jobs.Reschedule(ctx, job.ID, runAt, err.Error()); markErr != nil {
		w.logger.Error("failed to reschedule job", "error", markErr, "job_id", job.ID)
	}
	w.metrics.ObserveJob(string(job.Kind), "retried", elapsed)
}

func (w *Worker) dispatch(ctx context.Context, job Job) error {
	switch job.Kind {
	case JobSendReminder:
		return w.handlers.HandleSendReminder(ctx, job.Payload)
	case JobMarkUnresponsive:
		return w.handlers.HandleMarkUnresponsive(ctx, job.Payload)
	}
	return fmt.Errorf("reminders: unknown job kind %q", job.Kind)
}

func retryBackoff(attempts int) time.Duration {
	backoff := retryBackoffBase << uint(attempts-1)
	if backoff > maxRetryBackoff || backoff <= 0 {
		return maxRetryBackoff
	}
	return backoff
}
