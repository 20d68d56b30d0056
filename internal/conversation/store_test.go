package conversation

import (
	"context"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStartsAwaitingResponse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO lead_conversations").
		WithArgs(pgxmock.AnyArg(), "lead-1", "t-1", "awaiting_response", "low").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	conv, err := store.Create(context.Background(), "lead-1", "t-1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingResponse, conv.State)
	assert.Nil(t, conv.Info.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	mock.ExpectQuery("SELECT (.+) FROM lead_conversations").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestFindActiveByLeadSkipsResolvedConversations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM lead_conversations").
		WithArgs("lead-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "lead_id", "tenant_id", "state", "name", "need", "contact_preference",
			"confidence", "reminder1_sent_at", "reminder2_sent_at", "created_at", "updated_at",
		}).AddRow("conv-1", "lead-1", "t-1", "awaiting_need", strp("Dani"), nil, nil,
			"high", nil, nil, now, now))

	conv, err := store.FindActiveByLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingNeed, conv.State)

	// A lead whose only conversations are terminal has no active one.
	mock.ExpectQuery("SELECT (.+) FROM lead_conversations").
		WithArgs("lead-2").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.FindActiveByLead(context.Background(), "lead-2")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSentConditional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE lead_conversations").
		WithArgs(at, "conv-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := store.MarkReminderSent(context.Background(), "conv-1", 1, at)
	require.NoError(t, err)
	assert.True(t, applied)

	// Redelivery: the timestamp is already set, so the conditional update
	// touches zero rows.
	mock.ExpectExec("UPDATE lead_conversations").
		WithArgs(at, "conv-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err = store.MarkReminderSent(context.Background(), "conv-1", 1, at)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSentRejectsBadNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	_, err = store.MarkReminderSent(context.Background(), "conv-1", 3, time.Now())
	assert.Error(t, err)
}

func TestMarkUnresponsiveLosesRaceToResolution(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)

	mock.ExpectExec("UPDATE lead_conversations").
		WithArgs("unresponsive", "conv-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := store.MarkUnresponsive(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestSaveTurnPersistsSlotsAndState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	info := LeadInfo{Name: strp("Dani"), Confidence: ConfidenceHigh}

	mock.ExpectExec("UPDATE lead_conversations").
		WithArgs("awaiting_need", info.Name, (*string)(nil), (*string)(nil), "high", "conv-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SaveTurn(context.Background(), "conv-1", info, StateAwaitingNeed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
