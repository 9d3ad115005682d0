package openaiLLM

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  Broken Access Control is A01 [1]. "},
			}},
		})
	}))
	defer srv.Close()

	c, err := New(config.LLMConfig{Model: "gpt-4o-mini", SystemPrompt: "answer from context"}, "test-key", srv.URL, srv.Client())
	require.NoError(t, err)

	answer, err := c.Generate(context.Background(), "Question: what is A01?")
	require.NoError(t, err)
	assert.Equal(t, "Broken Access Control is A01 [1].", answer)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Question: what is A01?", got.Messages[1].Content)
}

func TestGenerate_Classifies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"quota", http.StatusTooManyRequests, commonModels.ErrProviderQuota},
		{"auth", http.StatusUnauthorized, commonModels.ErrProviderAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"error"}}`))
			}))
			defer srv.Close()

			c, err := New(config.LLMConfig{Model: "gpt-4o-mini"}, "test-key", srv.URL, srv.Client())
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), "q")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 1, calls, "no retries")
		})
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(config.LLMConfig{}, "", "", nil)
	assert.Error(t, err)
}
