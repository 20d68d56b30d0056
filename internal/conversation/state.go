package conversation

// State is the qualification state of a lead conversation. The set is closed;
// anything else is a programmer error.
type State string

const (
	// StateAwaitingResponse is the initial state: first outbound contact sent,
	// no customer reply yet.
	StateAwaitingResponse State = "awaiting_response"
	// StateAwaitingName means the bot is soliciting the customer's name.
	StateAwaitingName State = "awaiting_name"
	// StateAwaitingNeed means the bot is soliciting what the customer needs.
	StateAwaitingNeed State = "awaiting_need"
	// StateAwaitingPreference means the bot is soliciting how the customer
	// prefers to be contacted.
	StateAwaitingPreference State = "awaiting_preference"
	// StateCompleted is terminal: all three qualification slots are filled.
	StateCompleted State = "completed"
	// StateUnresponsive is terminal: reminders were exhausted without a reply.
	StateUnresponsive State = "unresponsive"
)

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	switch s {
	case StateAwaitingResponse, StateAwaitingName, StateAwaitingNeed,
		StateAwaitingPreference, StateCompleted, StateUnresponsive:
		return true
	}
	return false
}

// Event is a non-extraction occurrence fed to Transition.
type Event string

const (
	EventMessageReceived Event = "MESSAGE_RECEIVED"
	EventReminder1Sent   Event = "REMINDER_1_SENT"
	EventReminder2Sent   Event = "REMINDER_2_SENT"
	EventTimeout         Event = "TIMEOUT"
)

// IsTerminal reports whether the state is a sink: once entered, the
// conversation never transitions again.
func IsTerminal(s State) bool {
	return s == StateCompleted || s == StateUnresponsive
}

// ShouldSendResponse reports whether the bot actively solicits a missing slot
// in this state. It is false for the initial pre-reply state and for both
// terminal states.
func ShouldSendResponse(s State) bool {
	switch s {
	case StateAwaitingResponse, StateCompleted, StateUnresponsive:
		return false
	}
	return true
}

// NextState computes the state that follows an inbound message, given the
// accumulated (already-merged) slot record. Terminal states are absorbing.
// Slots are solicited in a fixed priority order: name, then need, then
// contact preference. A first reply that carries no name still advances out
// of awaiting_response into awaiting_name; the initial contact is never
// re-requested.
func NextState(current State, info LeadInfo) State {
	if IsTerminal(current) {
		return current
	}
	switch {
	case info.Complete():
		return StateCompleted
	case info.Name == nil:
		return StateAwaitingName
	case info.Need == nil:
		return StateAwaitingNeed
	default:
		return StateAwaitingPreference
	}
}

// Transition handles non-extraction events. Reminder events preserve the
// state: they exist so callers persist timestamps through a single code path.
// EventTimeout yields unresponsive regardless of the current value; callers
// must check IsTerminal first, Transition does not guard that. Inbound
// messages go through NextState, not Transition; EventMessageReceived is a
// state-preserving placeholder.
func Transition(current State, ev Event) State {
	if ev == EventTimeout {
		return StateUnresponsive
	}
	return current
}
