package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	calls []Event
	err   error
}

func (n *recordingNotifier) NotifyLeadEvent(_ context.Context, _ string, ev Event) error {
	n.calls = append(n.calls, ev)
	return n.err
}

func TestPublishPersistsAndNotifies(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier, nil)

	mock.ExpectExec("INSERT INTO activity_events").
		WithArgs(pgxmock.AnyArg(), "t-1", EventLeadUnresponsive, "lead-1", "conv-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc.Publish(context.Background(), "t-1", Event{
		Type:           EventLeadUnresponsive,
		LeadID:         "lead-1",
		ConversationID: "conv-1",
		OccurredAt:     time.Now().UTC(),
	})

	assert.Len(t, notifier.calls, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSwallowsFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewService(mock, notifier, nil)

	mock.ExpectExec("INSERT INTO activity_events").
		WillReturnError(errors.New("db down"))

	// Must not panic or surface either failure.
	svc.Publish(context.Background(), "t-1", Event{Type: EventLeadQualified, LeadID: "lead-1"})
	assert.Len(t, notifier.calls, 1)
}
