package conversation

import (
	"errors"
	"time"
)

// ErrConversationNotFound indicates the conversation does not exist.
var ErrConversationNotFound = errors.New("conversation: conversation not found")

// Conversation is the unit of qualification state for one lead.
type Conversation struct {
	ID              string     `json:"id"`
	LeadID          string     `json:"lead_id"`
	TenantID        string     `json:"tenant_id"`
	State           State      `json:"state"`
	Info            LeadInfo   `json:"info"`
	Reminder1SentAt *time.Time `json:"reminder1_sent_at,omitempty"`
	Reminder2SentAt *time.Time `json:"reminder2_sent_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ReminderSentAt returns the timestamp slot for the given reminder number,
// nil when that reminder has not been recorded yet.
func (c *Conversation) ReminderSentAt(n int) *time.Time {
	switch n {
	case 1:
		return c.Reminder1SentAt
	case 2:
		return c.Reminder2SentAt
	}
	return nil
}
