package recommender

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reading-tree/backend/internal/recommender/deps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerateContentSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"books\":[]}"}
			}]
		}`))
	}))
	defer server.Close()

	client := NewOpenAILLMClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	text, err := client.GenerateContent(context.Background(), deps.CompletionRequest{
		System:          "system text",
		User:            "user text",
		Temperature:     0.3,
		MaxOutputTokens: 600,
		JSONOutput:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"books":[]}`, text)

	assert.Equal(t, DefaultOpenAIModel, payload["model"])
	assert.InDelta(t, 0.3, payload["temperature"], 0.001)
	assert.EqualValues(t, 600, payload["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, payload["response_format"])

	messages, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIGenerateContentAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	client := NewOpenAILLMClient(OpenAIConfig{
		APIKey:  "wrong",
		BaseURL: server.URL,
	})

	_, err := client.GenerateContent(context.Background(), deps.CompletionRequest{User: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.False(t, IsQuotaError(err))
}
