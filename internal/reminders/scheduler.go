package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/lumora-ai/leadflow/pkg/logging"
)

// jobScheduler is the subset of JobStore the scheduler uses.
type jobScheduler interface {
	Schedule(ctx context.Context, kind JobKind, dedupeKey string, payload JobPayload, runAt time.Time) (bool, error)
}

// Delays configures the reminder cadence.
type Delays struct {
	Reminder1           time.Duration
	Reminder2           time.Duration
	UnresponsiveTimeout time.Duration
}

// Scheduler plans the follow-up jobs for a lead. Every job carries a
// deterministic dedupe key, so replanning after a retry or a duplicate
// webhook inserts nothing new.
type Scheduler struct {
	jobs   jobScheduler
	delays Delays
	logger *logging.Logger

	now func() time.Time
}

// NewScheduler constructs a reminder scheduler.
func NewScheduler(jobs jobScheduler, delays Delays, logger *logging.Logger) *Scheduler {
	if jobs == nil {
		panic("reminders: job store cannot be nil")
	}
	if delays.Reminder1 <= 0 || delays.Reminder2 <= 0 || delays.UnresponsiveTimeout <= 0 {
		panic("reminders: delays must be positive")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{jobs: jobs, delays: delays, logger: logger, now: time.Now}
}

// PlanReminders schedules both nudges for a freshly contacted lead. The
// reminder clock runs from the initial greeting, not from the previous
// reminder, so both jobs are planned up front.
func (s *Scheduler) PlanReminders(ctx context.Context, leadID, conversationID string) error {
	base := s.now().UTC()

	delays := []time.Duration{s.delays.Reminder1, s.delays.Reminder2}
	for i, delay := range delays {
		n := i + 1
		payload := JobPayload{LeadID: leadID, ConversationID: conversationID, ReminderNumber: n}
		inserted, err := s.jobs.Schedule(ctx, JobSendReminder, reminderDedupeKey(n, leadID), payload, base.Add(delay))
		if err != nil {
			return err
		}
		if !inserted {
			s.logger.Debug("reminder already planned", "lead_id", leadID, "reminder", n)
		}
	}
	return nil
}

// ScheduleUnresponsiveCheck arms the final timeout after the second reminder
// went out. Runs relative to now, i.e. the moment reminder 2 was delivered.
func (s *Scheduler) ScheduleUnresponsiveCheck(ctx context.Context, leadID, conversationID string) error {
	payload := JobPayload{LeadID: leadID, ConversationID: conversationID}
	inserted, err := s.jobs.Schedule(ctx, JobMarkUnresponsive, unresponsiveDedupeKey(leadID), payload, s.now().UTC().Add(s.delays.UnresponsiveTimeout))
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Debug("unresponsive check already planned", "lead_id", leadID)
	}
	return nil
}

func reminderDedupeKey(n int, leadID string) string {
	return fmt.Sprintf("reminder:%d:%s", n, leadID)
}

func unresponsiveDedupeKey(leadID string) string {
	return "unresponsive:" + leadID
}
