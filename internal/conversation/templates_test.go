package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreetingWithAndWithoutTenantName(t *testing.T) {
	assert.Contains(t, Greeting("Glow Studio"), "Glow Studio")
	assert.NotEmpty(t, Greeting(""))
}

func TestSolicitationCoversMidDialogueStates(t *testing.T) {
	for _, state := range []State{StateAwaitingName, StateAwaitingNeed, StateAwaitingPreference} {
		body, ok := SolicitationFor(state)
		assert.True(t, ok, string(state))
		assert.NotEmpty(t, body, string(state))
	}

	for _, state := range []State{StateAwaitingResponse, StateCompleted, StateUnresponsive} {
		_, ok := SolicitationFor(state)
		assert.False(t, ok, string(state))
	}
}

func TestReminderTextDefinedForBothNudges(t *testing.T) {
	assert.NotEmpty(t, ReminderText(1))
	assert.NotEmpty(t, ReminderText(2))
	assert.NotEqual(t, ReminderText(1), ReminderText(2))
	assert.Empty(t, ReminderText(3))
}
