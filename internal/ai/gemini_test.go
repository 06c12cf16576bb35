package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerate(t *testing.T) {
	var got geminiRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gemini-2.5-flash:generateContent" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "key travels in a header")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "  A média "},
					map[string]any{"text": "é 272,5.\n"},
				}},
			}},
			"responseId": "resp-1",
		})
	}))

	c := NewGeminiClient("k", srv.URL, 2*time.Second)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Messages: []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "qual a média?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "  A média é 272,5.\n", resp.Text())
	assert.Equal(t, "resp-1", resp.RequestID)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
}

func TestGeminiErrors(t *testing.T) {
	type reply struct {
		status int
		body   any
	}
	var (
		mu  sync.Mutex
		cur reply
	)
	set := func(r reply) {
		mu.Lock()
		cur = r
		mu.Unlock()
	}
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		rep := cur
		mu.Unlock()
		w.WriteHeader(rep.status)
		_ = json.NewEncoder(w).Encode(rep.body)
	}))
	c := NewGeminiClient("k", srv.URL, 2*time.Second)

	set(reply{http.StatusTooManyRequests, map[string]any{"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}})

	_, err := c.Generate(context.Background(), userRequest("", "hi"))
	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "RESOURCE_EXHAUSTED", qe.Code)

	set(reply{http.StatusOK, map[string]any{"candidates": []any{}}})
	_, err = c.Generate(context.Background(), userRequest("", "hi"))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	set(reply{http.StatusOK, map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}}})
	_, err = c.Generate(context.Background(), userRequest("", "hi"))
	var br *BadRequestError
	assert.ErrorAs(t, err, &br)

	_, err = NewGeminiClient("", srv.URL, time.Second).Generate(context.Background(), userRequest("", "hi"))
	assert.EqualError(t, err, "GOOGLE_API_KEY is missing")
}

func TestHuggingFaceGenerate(t *testing.T) {
	var got hfRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mistralai/Mistral-7B-Instruct-v0.2" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "Model is currently loading", "estimated_time": 20.0})
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode([]map[string]any{{"generated_text": " prompt and answer "}})
	}))

	c := NewHuggingFaceClient("tok", srv.URL, 2*time.Second)
	resp, err := c.Generate(context.Background(), userRequest("", "prompt"))
	require.NoError(t, err)
	assert.Equal(t, " prompt and answer ", resp.Text())
	assert.Equal(t, "prompt", got.Inputs)
	assert.Nil(t, got.Parameters)

	_, err = c.Generate(context.Background(), userRequest("other/model", "prompt"))
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Model is currently loading", se.Message)

	_, err = NewHuggingFaceClient("", srv.URL, time.Second).Generate(context.Background(), userRequest("", "p"))
	assert.EqualError(t, err, "HF_API_TOKEN is missing")
}

func TestRegistryProviders(t *testing.T) {
	assert.Equal(t, []string{ProviderGemini, ProviderHuggingFace, ProviderOllama, ProviderOpenRouter}, Providers())
	rt, ok := GetRuntime(ProviderHuggingFace, RuntimeConfig{APIKey: "x"})
	require.True(t, ok)
	assert.IsType(t, &HuggingFaceClient{}, rt)
	_, ok = GetRuntime("nope", RuntimeConfig{})
	assert.False(t, ok)
}
