package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumora-ai/leadflow/internal/activity"
	"github.com/lumora-ai/leadflow/internal/tenants"
)

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTenantDirectory struct {
	tenant *tenants.Tenant
	err    error
}

func (f *fakeTenantDirectory) GetByID(context.Context, string) (*tenants.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tenant, nil
}

func qualifiedEvent() activity.Event {
	return activity.Event{
		Type:           activity.EventLeadQualified,
		LeadID:         "lead-1",
		ConversationID: "conv-1",
		OccurredAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyLeadEventEmailsOperator(t *testing.T) {
	email := &fakeEmailSender{}
	svc := NewService(email, &fakeTenantDirectory{tenant: &tenants.Tenant{
		ID: "t-1", Name: "Glow Studio", NotifyEmail: "owner@glow.example",
	}}, nil)

	require.NoError(t, svc.NotifyLeadEvent(context.Background(), "t-1", qualifiedEvent()))
	require.Len(t, email.sent, 1)
	assert.Equal(t, "owner@glow.example", email.sent[0].To)
	assert.Equal(t, "New qualified lead", email.sent[0].Subject)
	assert.Contains(t, email.sent[0].Body, "lead-1")
}

func TestNotifyLeadEventSkipsTenantWithoutAddress(t *testing.T) {
	email := &fakeEmailSender{}
	svc := NewService(email, &fakeTenantDirectory{tenant: &tenants.Tenant{ID: "t-1"}}, nil)

	require.NoError(t, svc.NotifyLeadEvent(context.Background(), "t-1", qualifiedEvent()))
	assert.Empty(t, email.sent)
}

func TestNotifyLeadEventIgnoresReminderTraffic(t *testing.T) {
	email := &fakeEmailSender{}
	directory := &fakeTenantDirectory{err: errors.New("must not be called")}
	svc := NewService(email, directory, nil)

	ev := qualifiedEvent()
	ev.Type = activity.EventReminderSent
	require.NoError(t, svc.NotifyLeadEvent(context.Background(), "t-1", ev))
	assert.Empty(t, email.sent)
}

func TestNotifyLeadEventWithoutSenderIsNoop(t *testing.T) {
	svc := NewService(nil, &fakeTenantDirectory{}, nil)
	assert.NoError(t, svc.NotifyLeadEvent(context.Background(), "t-1", qualifiedEvent()))
}

func TestNotifyLeadEventPropagatesSendFailure(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("sendgrid 500")}
	svc := NewService(email, &fakeTenantDirectory{tenant: &tenants.Tenant{
		ID: "t-1", NotifyEmail: "owner@glow.example",
	}}, nil)

	assert.Error(t, svc.NotifyLeadEvent(context.Background(), "t-1", qualifiedEvent()))
}
