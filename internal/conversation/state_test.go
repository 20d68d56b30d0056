package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func fullInfo() LeadInfo {
	return LeadInfo{
		Name:              strp("Dani"),
		Need:              strp("website redesign"),
		ContactPreference: strp("whatsapp"),
		Confidence:        ConfidenceHigh,
	}
}

func TestNextStateTerminalStable(t *testing.T) {
	infos := []LeadInfo{{}, fullInfo(), {Name: strp("Dani")}}
	for _, s := range []State{StateCompleted, StateUnresponsive} {
		for _, info := range infos {
			assert.Equal(t, s, NextState(s, info))
		}
	}
}

func TestNextStateCompletesWhenAllSlotsFilled(t *testing.T) {
	for _, s := range []State{StateAwaitingResponse, StateAwaitingName, StateAwaitingNeed, StateAwaitingPreference} {
		assert.Equal(t, StateCompleted, NextState(s, fullInfo()), "from %s", s)
	}
}

func TestNextStatePriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		info LeadInfo
		want State
	}{
		{"nothing filled", LeadInfo{}, StateAwaitingName},
		{"name only", LeadInfo{Name: strp("Dani")}, StateAwaitingNeed},
		{"name and need", LeadInfo{Name: strp("Dani"), Need: strp("branding")}, StateAwaitingPreference},
		{"need without name", LeadInfo{Need: strp("branding")}, StateAwaitingName},
		{"preference without name", LeadInfo{ContactPreference: strp("email")}, StateAwaitingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextState(StateAwaitingNeed, tt.info))
		})
	}
}

// A first reply that carries no name must advance out of awaiting_response
// into awaiting_name, never re-request the initial contact.
func TestNextStateFirstReplyWithoutName(t *testing.T) {
	got := NextState(StateAwaitingResponse, LeadInfo{})
	assert.Equal(t, StateAwaitingName, got)
	assert.NotEqual(t, StateAwaitingResponse, got)
}

func TestTransitionTimeout(t *testing.T) {
	for _, s := range []State{StateAwaitingResponse, StateAwaitingName, StateAwaitingNeed, StateAwaitingPreference} {
		assert.Equal(t, StateUnresponsive, Transition(s, EventTimeout))
	}
}

func TestTransitionReminderEventsPreserveState(t *testing.T) {
	for _, ev := range []Event{EventReminder1Sent, EventReminder2Sent, EventMessageReceived} {
		for _, s := range []State{StateAwaitingResponse, StateAwaitingNeed, StateCompleted} {
			assert.Equal(t, s, Transition(s, ev))
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateCompleted))
	assert.True(t, IsTerminal(StateUnresponsive))
	assert.False(t, IsTerminal(StateAwaitingNeed))
	assert.False(t, IsTerminal(StateAwaitingResponse))
}

func TestShouldSendResponse(t *testing.T) {
	assert.False(t, ShouldSendResponse(StateAwaitingResponse))
	assert.False(t, ShouldSendResponse(StateCompleted))
	assert.False(t, ShouldSendResponse(StateUnresponsive))
	assert.True(t, ShouldSendResponse(StateAwaitingName))
	assert.True(t, ShouldSendResponse(StateAwaitingNeed))
	assert.True(t, ShouldSendResponse(StateAwaitingPreference))
}

func TestStateIsValid(t *testing.T) {
	assert.True(t, StateAwaitingName.IsValid())
	assert.False(t, State("resolved").IsValid())
}
