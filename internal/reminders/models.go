package reminders

import "time"

// JobKind identifies what a scheduled job does when it comes due.
type JobKind string

const (
	// JobSendReminder delivers the Nth nudge to a silent lead.
	JobSendReminder JobKind = "send_reminder"
	// JobMarkUnresponsive closes out a conversation whose reminders were
	// exhausted without a reply.
	JobMarkUnresponsive JobKind = "mark_unresponsive"
)

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobPayload carries the identifiers a handler needs to act. Kept small on
// purpose: handlers re-read the conversation at execution time rather than
// trusting a snapshot taken hours earlier.
type JobPayload struct {
	LeadID         string `json:"lead_id"`
	ConversationID string `json:"conversation_id"`
	ReminderNumber int    `json:"reminder_number,omitempty"`
}

// Job is one persisted scheduled action.
type Job struct {
	ID        string
	Kind      JobKind
	DedupeKey string
	Payload   JobPayload
	RunAt     time.Time
	Status    JobStatus
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
