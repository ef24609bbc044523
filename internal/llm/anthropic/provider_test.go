package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(baseURL string) *Provider {
	return NewProvider(config.AnthropicConfig{APIKey: "sk-ant-test", BaseURL: baseURL, Model: "claude-test"}, 5*time.Second)
}

func TestComplete_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 10, req.MaxTokens)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"8"},{"type":"text","text":".5"}]}`))
	}))
	defer ts.Close()

	out, err := newTestProvider(ts.URL).Complete(context.Background(), llm.CompletionRequest{Prompt: "grade", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "8.5", out)
}

func TestComplete_DefaultMaxTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1024, req.MaxTokens)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL).Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)
}

func TestComplete_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL).Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrInvalidResponse)
}

func TestComplete_Overloaded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL).Complete(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrProviderUnavailable)
}
