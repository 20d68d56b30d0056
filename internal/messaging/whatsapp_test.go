package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(server.URL, "phone-1", "token-1", nil)
	require.NoError(t, sender.SendText(context.Background(), "+4917612345678", "hello"))

	assert.Equal(t, "/phone-1/messages", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "whatsapp", gotBody["messaging_product"])
	assert.Equal(t, "+4917612345678", gotBody["to"])
	text, ok := gotBody["text"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", text["body"])
}

func TestSendTextRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(server.URL, "phone-1", "token-1", nil)
	require.NoError(t, sender.SendText(context.Background(), "+49123", "hello"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendTextDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(server.URL, "phone-1", "token-1", nil)
	assert.Error(t, sender.SendText(context.Background(), "+49123", "hello"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendTextValidatesInput(t *testing.T) {
	sender := NewWhatsAppSender("", "phone-1", "token-1", nil)
	assert.Error(t, sender.SendText(context.Background(), "", "hello"))
	assert.Error(t, sender.SendText(context.Background(), "+49123", "   "))

	unconfigured := NewWhatsAppSender("", "phone-1", "", nil)
	assert.Error(t, unconfigured.SendText(context.Background(), "+49123", "hello"))
}
