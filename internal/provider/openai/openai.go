// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package openai

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Compile-time interface check.
var _ provider.Generator = (*Generator)(nil)

// Generator implements provider.Generator using the OpenAI Chat Completions
// API, non-streaming.
type Generator struct {
	client openaisdk.Client
}

// New creates a new OpenAI generator. Returns an error if the API key is
// missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retry is owned by the caller's RetryPolicy, not the SDK.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Generator{client: openaisdk.NewClient(opts...)}, nil
}

func (g *Generator) Name() string { return "openai" }

// Generate performs a single chat completion call.
func (g *Generator) Generate(ctx context.Context, req provider.Request) (string, error) {
	params := buildParams(req)

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", parleyerr.Wrapf(err, parleyerr.CodeProviderUpstreamFailure,
			"openai chat completion with %s", req.Model)
	}

	if len(resp.Choices) == 0 {
		return "", parleyerr.New(parleyerr.CodeProviderResponseInvalid, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Retryable reports true for rate-limit and server errors (429, 500, 503).
func (g *Generator) Retryable(err error) bool {
	var apierr *openaisdk.Error
	if !errors.As(err, &apierr) {
		return false
	}
	switch apierr.StatusCode {
	case 429, 500, 503:
		return true
	}
	return false
}

func buildParams(req provider.Request) openaisdk.ChatCompletionNewParams {
	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: convertMessages(req),
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	return params
}

// convertMessages lays out system prompt, sanitized history, then the
// current user prompt.
func convertMessages(req provider.Request) []openaisdk.ChatCompletionMessageParamUnion {
	history := provider.SanitizeHistory(req.History)
	result := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+2)

	if req.SystemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(req.SystemPrompt))
	}

	for _, msg := range history {
		switch msg.Role {
		case store.MessageRoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		case store.MessageRoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		default:
			result = append(result, openaisdk.UserMessage(msg.Content))
		}
	}

	result = append(result, openaisdk.UserMessage(req.Prompt))
	return result
}
