// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// defaultMaxTokens bounds responses when the request does not set a cap;
// the Messages API requires an explicit value.
const defaultMaxTokens = 1024

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Compile-time interface check.
var _ provider.Generator = (*Generator)(nil)

// Generator implements provider.Generator using the Anthropic Messages API,
// non-streaming.
type Generator struct {
	client anthropicsdk.Client
}

// New creates a new Anthropic generator. Returns an error if the API key is
// missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retry is owned by the caller's RetryPolicy, not the SDK.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Generator{client: anthropicsdk.NewClient(opts...)}, nil
}

func (g *Generator) Name() string { return "anthropic" }

// Generate performs a single Messages API call.
func (g *Generator) Generate(ctx context.Context, req provider.Request) (string, error) {
	params := buildParams(req)

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", parleyerr.Wrapf(err, parleyerr.CodeProviderUpstreamFailure,
			"anthropic message with %s", req.Model)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", parleyerr.New(parleyerr.CodeProviderResponseInvalid, "anthropic returned no text content")
	}
	return sb.String(), nil
}

// Retryable reports true for rate-limit and server errors (429, 500, 503).
func (g *Generator) Retryable(err error) bool {
	var apierr *anthropicsdk.Error
	if !errors.As(err, &apierr) {
		return false
	}
	switch apierr.StatusCode {
	case 429, 500, 503:
		return true
	}
	return false
}

func buildParams(req provider.Request) anthropicsdk.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		Messages:  convertMessages(req),
		MaxTokens: maxTokens,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(req.Temperature)
	}

	return params
}

// convertMessages lays out sanitized history then the current user prompt.
// History system messages fold into user turns; the Messages API only takes
// a top-level system param.
func convertMessages(req provider.Request) []anthropicsdk.MessageParam {
	history := provider.SanitizeHistory(req.History)
	result := make([]anthropicsdk.MessageParam, 0, len(history)+1)

	for _, msg := range history {
		switch msg.Role {
		case store.MessageRoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		default:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		}
	}

	result = append(result, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)))
	return result
}
