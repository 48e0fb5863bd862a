package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

func TestWebhookClientPost(t *testing.T) {
	var got entities.WebhookEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewWebhookClient(time.Second, zap.NewNop())
	body, err := client.Post(context.Background(), srv.URL, entities.WebhookEnvelope{
		CompanyID:   "c1",
		WorkflowID:  "w1",
		ExecutionID: "e1",
		Input:       json.RawMessage(`{"text":"hi"}`),
		Timestamp:   time.Now(),
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "c1", got.CompanyID)
	assert.Equal(t, "e1", got.ExecutionID)
	assert.JSONEq(t, `{"text":"hi"}`, string(got.Input))
}

func TestWebhookClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewWebhookClient(time.Second, zap.NewNop())
	_, err := client.Post(context.Background(), srv.URL, entities.WebhookEnvelope{Input: json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "status 502")
}

func TestWebhookClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewWebhookClient(20*time.Millisecond, zap.NewNop())
	_, err := client.Post(context.Background(), srv.URL, entities.WebhookEnvelope{Input: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestWebhookClientResponseLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"` + strings.Repeat("a", 64) + `"`))
	}))
	defer srv.Close()

	client := NewWebhookClient(time.Second, zap.NewNop())
	client.maxBody = 16
	_, err := client.Post(context.Background(), srv.URL, entities.WebhookEnvelope{Input: json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "exceeds 16 bytes")

	client.maxBody = 66
	body, err := client.Post(context.Background(), srv.URL, entities.WebhookEnvelope{Input: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Len(t, body, 66)
}
