package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photovault/internal/logging"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func TestService_SendAppendsBothSides(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("You have two collections."))
	}))
	defer srv.Close()

	history := NewHistory(filepath.Join(t.TempDir(), "chat.json"))
	s := NewService("test-key", srv.URL, "test-model", 256, history, logging.NewDiscardLogger())

	reply, err := s.Send(context.Background(), "how many collections do I have?")
	require.NoError(t, err)
	assert.Equal(t, "You have two collections.", reply.Content)
	assert.False(t, reply.FromUser)

	// system prompt plus the single user turn went out
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "how many collections do I have?", got.Messages[1].Content)

	messages, err := history.Load()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].FromUser)
	assert.False(t, messages[1].FromUser)
}

func TestService_ContextReplaysPriorTurns(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	history := NewHistory(filepath.Join(t.TempDir(), "chat.json"))
	require.NoError(t, history.Append(NewMessage("first question", true), NewMessage("first answer", false)))

	s := NewService("test-key", srv.URL, "test-model", 256, history, logging.NewDiscardLogger())

	_, err := s.Send(context.Background(), "second question")
	require.NoError(t, err)

	// system, two replayed turns, then the new user message
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "first question", got.Messages[1].Content)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "second question", got.Messages[3].Content)
}

func TestService_ContextIsBounded(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	history := NewHistory(filepath.Join(t.TempDir(), "chat.json"))
	for i := 0; i < maxContextMessages; i++ {
		require.NoError(t, history.Append(NewMessage("turn", i%2 == 0)))
	}
	require.NoError(t, history.Append(NewMessage("overflow", true)))

	s := NewService("test-key", srv.URL, "test-model", 256, history, logging.NewDiscardLogger())

	_, err := s.Send(context.Background(), "latest")
	require.NoError(t, err)

	// system + bounded window + new message
	assert.Len(t, got.Messages, maxContextMessages+2)
}

func TestService_FailedCallLeavesLogUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	history := NewHistory(filepath.Join(t.TempDir(), "chat.json"))
	require.NoError(t, history.Append(NewMessage("earlier", true)))

	s := NewService("test-key", srv.URL, "test-model", 256, history, logging.NewDiscardLogger())

	_, err := s.Send(context.Background(), "does this work?")
	require.Error(t, err)

	messages, err := history.Load()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "earlier", messages[0].Content)
}
