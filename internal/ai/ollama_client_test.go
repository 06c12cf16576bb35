package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "hello from ollama"},
		})
	}))

	c := NewOllamaClient(srv.URL, 2*time.Second)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:     "llama3:latest",
		Messages:  []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		MaxTokens: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from ollama", resp.Text())
	assert.NotEmpty(t, resp.RequestID)
	assert.False(t, captured.Stream)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.EqualValues(t, 16, captured.Options["num_predict"])
}

func TestOllamaGenerateErrors(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'x' not found"})
	}))
	c := NewOllamaClient(srv.URL, 2*time.Second)
	_, err := c.Generate(context.Background(), userRequest("x", "hi"))
	var mnf *ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.Contains(t, err.Error(), "model 'x' not found")

	_, err = c.Generate(context.Background(), GenerateRequest{Model: "x"})
	assert.EqualError(t, err, "messages cannot be empty")
}

func TestOllamaUnreachable(t *testing.T) {
	srv := newIPv4Server(t, http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	_, err := NewOllamaClient(host, time.Second).Generate(context.Background(), userRequest("x", "hi"))
	var ue *UnreachableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, host, ue.Host)
}
