package conversation

import "fmt"

// Greeting is the first outbound message after a lead is captured.
func Greeting(tenantName string) string {
	if tenantName == "" {
		return "Hi! Thanks for reaching out. How can we help you?"
	}
	return fmt.Sprintf("Hi! Thanks for reaching out to %s. How can we help you?", tenantName)
}

// SolicitationFor returns the prompt soliciting the slot named by a
// mid-dialogue state. ok is false for states the bot does not reply in.
func SolicitationFor(state State) (string, bool) {
	switch state {
	case StateAwaitingName:
		return "Great to hear from you! Who do we have the pleasure of talking to?", true
	case StateAwaitingNeed:
		return "What can we help you with? A few words about what you're looking for is perfect.", true
	case StateAwaitingPreference:
		return "Almost done — how would you like us to follow up? WhatsApp, email, or a quick call?", true
	}
	return "", false
}

// ReminderText returns the follow-up nudge for reminder 1 or 2.
func ReminderText(n int) string {
	switch n {
	case 1:
		return "Just checking in — we'd love to help you out. Reply whenever works for you!"
	case 2:
		return "Still here if you need us! If we don't hear back we'll stop messaging, but you can always pick this up again later."
	}
	return ""
}
