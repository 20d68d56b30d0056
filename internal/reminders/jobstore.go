package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrJobNotFound indicates the job row does not exist.
var ErrJobNotFound = errors.New("reminders: job not found")

// staleRunningAfter bounds how long a job may sit in running before another
// poller is allowed to reclaim it. Covers workers that crashed mid-execution.
const staleRunningAfter = 10 * time.Minute

// JobStore persists scheduled jobs in Postgres. The dedupe_key unique index
// is the idempotency mechanism: scheduling the same logical job twice is a
// silent no-op, so callers can plan reminders without checking first.
type JobStore struct {
	db DB
}

// NewJobStore creates a job store.
func NewJobStore(db DB) *JobStore {
	if db == nil {
		panic("reminders: db required")
	}
	return &JobStore{db: db}
}

const jobColumns = `id, kind, dedupe_key, payload, run_at, status, attempts, last_error, created_at, updated_at`

// Schedule inserts a job keyed by dedupeKey. Returns true when the row was
// inserted and false when a job with the same key already exists.
func (s *JobStore) Schedule(ctx context.Context, kind JobKind, dedupeKey string, payload JobPayload, runAt time.Time) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("reminders: encode job payload: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO scheduled_jobs (id, kind, dedupe_key, payload, run_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dedupe_key) DO NOTHING`,
		uuid.New(), string(kind), dedupeKey, body, runAt.UTC())
	if err != nil {
		return false, fmt.Errorf("reminders: schedule %s job: %w", kind, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListDue returns jobs ready to execute: pending rows past their run_at plus
// running rows abandoned longer than the stale-running window.
func (s *JobStore) ListDue(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE run_at <= now()
		  AND (status = 'pending' OR (status = 'running' AND updated_at < now() - $1::interval))
		ORDER BY run_at
		LIMIT $2`,
		staleRunningAfter.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: list due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reminders: list due jobs: %w", err)
	}
	return jobs, nil
}

// Claim transitions a due job to running. Returns false when another poller
// claimed it first; the conditional update is the only lock.
func (s *JobStore) Claim(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_jobs
		SET status = 'running', attempts = attempts + 1, updated_at = now()
		WHERE id = $1
		  AND (status = 'pending' OR (status = 'running' AND updated_at < now() - $2::interval))`,
		id, staleRunningAfter.String())
	if err != nil {
		return false, fmt.Errorf("reminders: claim job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted finalizes a successfully executed job.
func (s *JobStore) MarkCompleted(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_jobs
		SET status = 'completed', last_error = NULL, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reminders: mark job completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Reschedule returns a failed job to pending with a new run time.
func (s *JobStore) Reschedule(ctx context.Context, id string, runAt time.Time, cause string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_jobs
		SET status = 'pending', run_at = $1, last_error = $2, updated_at = now()
		WHERE id = $3`, runAt.UTC(), cause, id)
	if err != nil {
		return fmt.Errorf("reminders: reschedule job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkFailed parks a job that exhausted its retry budget.
func (s *JobStore) MarkFailed(ctx context.Context, id string, cause string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scheduled_jobs
		SET status = 'failed', last_error = $1, updated_at = now()
		WHERE id = $2`, cause, id)
	if err != nil {
		return fmt.Errorf("reminders: mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var kind, status string
	var payload []byte
	if err := row.Scan(
		&j.ID,
		&kind,
		&j.DedupeKey,
		&payload,
		&j.RunAt,
		&status,
		&j.Attempts,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("reminders: scan job: %w", err)
	}
	j.Kind = JobKind(kind)
	j.Status = JobStatus(status)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &j.Payload); err != nil {
			return nil, fmt.Errorf("reminders: decode job payload: %w", err)
		}
	}
	return &j, nil
}
