package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMAnswererRequiresKey(t *testing.T) {
	_, err := NewLLMAnswerer(LLMConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestLLMAnswererAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content any `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.NotEmpty(t, body.Messages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "  about 7 square meters \n"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
}`))
	}))
	defer srv.Close()

	a, err := NewLLMAnswerer(LLMConfig{BaseURL: srv.URL, Model: "test-model", APIKey: "sk-test"})
	require.NoError(t, err)

	answer, err := a.Answer(context.Background(), "What is the bathroom size in square meters?", "The bathroom is about 7 square meters.")
	require.NoError(t, err)
	assert.Equal(t, "about 7 square meters", answer)
}
