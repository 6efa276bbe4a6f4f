// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/provider/openai"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

func newMockServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	var gotReq map[string]any
	srv := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("Cats nap a lot.")))
	})

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), provider.Request{
		Model:        "gpt-4o",
		SystemPrompt: "You answer briefly.",
		History: []store.Message{
			{Role: store.MessageRoleUser, Content: "hi"},
			{Role: store.MessageRoleAssistant, Content: "hello"},
		},
		Prompt:      "What do cats do?",
		Temperature: 0.7,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cats nap a lot.", out)

	assert.Equal(t, "gpt-4o", gotReq["model"])
	msgs, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	// system + two history turns + current prompt
	require.Len(t, msgs, 4)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	last := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "What do cats do?", last["content"])
}

func TestGenerator_UpstreamFailure(t *testing.T) {
	srv := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	})

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), provider.Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, parleyerr.CodeProviderUpstreamFailure, parleyerr.CodeOf(err))
	assert.True(t, gen.Retryable(err))
}

func TestGenerator_NoChoices(t *testing.T) {
	srv := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := completionResponse("")
		resp["choices"] = []map[string]any{}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	gen, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), provider.Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, parleyerr.CodeProviderResponseInvalid, parleyerr.CodeOf(err))
}

func TestGenerator_RetryableStatuses(t *testing.T) {
	gen, err := openai.New(openai.Config{APIKey: "test-key"})
	require.NoError(t, err)

	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "nope"}}`))
		})
		g, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL})
		require.NoError(t, err)
		_, genErr := g.Generate(context.Background(), provider.Request{Model: "gpt-4o", Prompt: "hi"})
		require.Error(t, genErr)
		assert.True(t, g.Retryable(genErr), "status %d should be retryable", status)
	}

	srv := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad"}}`))
	})
	g, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, genErr := g.Generate(context.Background(), provider.Request{Model: "gpt-4o", Prompt: "hi"})
	require.Error(t, genErr)
	assert.False(t, g.Retryable(genErr))
	assert.False(t, gen.Retryable(context.Canceled))
}

func TestNew_MissingKey(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
}
