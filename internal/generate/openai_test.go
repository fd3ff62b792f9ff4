// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// chatServer answers chat completion requests with content and records
// the decoded request body.
func chatServer(t *testing.T, content string, got *map[string]any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		reply := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestOpenAIBackend_Complete(t *testing.T) {
	var req map[string]any
	ts := chatServer(t, validReply, &req)

	b := NewOpenAIBackend(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL + "/v1"})
	content, err := b.Complete(context.Background(), Prompts{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, validReply, content)

	assert.Equal(t, DefaultModel, req["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
	msgs := req["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "sys", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "usr", msgs[1].(map[string]any)["content"])
}

func TestOpenAIBackend_EmptyContent(t *testing.T) {
	ts := chatServer(t, "", nil)
	b := NewOpenAIBackend(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL + "/v1", Model: "gpt-4o"})

	_, err := b.Complete(context.Background(), Prompts{})
	assert.ErrorIs(t, err, errEmptyResponse)
	assert.Equal(t, "gpt-4o", b.Model)
}

func TestOpenAIBackend_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer ts.Close()

	b := NewOpenAIBackend(types.AIConfig{APIKey: "bad", BaseURL: ts.URL + "/v1"})
	_, err := b.Complete(context.Background(), Prompts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestGenerator_WithOpenAIBackend(t *testing.T) {
	ts := chatServer(t, validReply, nil)
	g := &Generator{
		Backend:     NewOpenAIBackend(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL + "/v1"}),
		MaxAttempts: 2,
	}

	res, err := g.Generate(context.Background(), Prompts{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "# 要件定義\n\n本文", res.FormattedMarkdown)
}
