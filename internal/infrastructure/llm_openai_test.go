package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"project_amharicAI/internal/entities"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL, "gpt-4", zap.NewNop())
	reply, err := client.Complete(context.Background(), entities.CompletionRequest{
		Messages: []entities.ChatTurn{
			{Role: entities.ChatRoleSystem, Content: "be nice"},
			{Role: entities.ChatRoleUser, Content: "hi"},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)
	assert.Equal(t, "gpt-4", got["model"])
	assert.EqualValues(t, 2000, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 0.001)
	assert.Len(t, got["messages"], 2)
}

func TestOpenAIClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream down", "type": "server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL, "gpt-4", zap.NewNop())
	_, err := client.Complete(context.Background(), entities.CompletionRequest{
		Messages: []entities.ChatTurn{{Role: entities.ChatRoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}
