package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumora-ai/leadflow/internal/conversation"
	"github.com/lumora-ai/leadflow/internal/leads"
)

type fakeLeadsRepo struct {
	created *leads.Lead
	err     error
}

func (f *fakeLeadsRepo) Create(_ context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &leads.Lead{
		ID:       "lead-1",
		TenantID: req.TenantID,
		Name:     req.Name,
		Phone:    req.Phone,
		Source:   req.Source,
		Status:   leads.StatusNew,
	}
	return f.created, nil
}

func (f *fakeLeadsRepo) GetByID(context.Context, string) (*leads.Lead, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLeadsRepo) UpdateStatus(context.Context, string, leads.Status) error {
	return nil
}

type fakeStarter struct {
	started []string
	err     error
}

func (f *fakeStarter) Start(_ context.Context, lead *leads.Lead) (*conversation.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, lead.ID)
	return &conversation.Conversation{ID: "conv-1", LeadID: lead.ID}, nil
}

func postLead(t *testing.T, h *LeadsHandler, tenantID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	if tenantID != "" {
		req.Header.Set("X-Tenant-Id", tenantID)
	}
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateLeadStartsConversation(t *testing.T) {
	repo := &fakeLeadsRepo{}
	starter := &fakeStarter{}
	h := NewLeadsHandler(repo, starter, nil)

	rec := postLead(t, h, "t-1", `{"name":"Dani","phone":"+4917612345678","source":"landing"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createLeadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "lead-1", resp.Lead.ID)
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, []string{"lead-1"}, starter.started)
}

func TestCreateLeadRequiresTenant(t *testing.T) {
	h := NewLeadsHandler(&fakeLeadsRepo{}, &fakeStarter{}, nil)

	rec := postLead(t, h, "", `{"phone":"+49123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLeadRequiresPhone(t *testing.T) {
	h := NewLeadsHandler(&fakeLeadsRepo{}, &fakeStarter{}, nil)

	rec := postLead(t, h, "t-1", `{"name":"Dani"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLeadSurvivesStartFailure(t *testing.T) {
	repo := &fakeLeadsRepo{}
	h := NewLeadsHandler(repo, &fakeStarter{err: errors.New("queue down")}, nil)

	rec := postLead(t, h, "t-1", `{"phone":"+49123"}`)
	// The contact is captured; losing the kickoff must not lose the lead.
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createLeadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "lead-1", resp.Lead.ID)
	assert.Empty(t, resp.ConversationID)
}
