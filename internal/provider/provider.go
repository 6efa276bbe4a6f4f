// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package provider defines the generation boundary: a Generator produces one
// assistant response from a prompt, the session history, and retrieved
// context, and reports which of its failures are worth retrying. The bounded
// retry policy lives here too, so the orchestrator drives retries without
// knowing any vendor SDK.
package provider

import (
	"context"

	"github.com/parley-dev/parley/internal/store"
)

// Generator is the core interface for LLM generation providers.
type Generator interface {
	Name() string

	// Generate produces a single completed response. It performs exactly one
	// upstream call; retry is the caller's RetryPolicy concern.
	Generate(ctx context.Context, req Request) (string, error)

	// Retryable reports whether err is a transient upstream condition
	// (rate limit, server error) worth another attempt.
	Retryable(err error) bool
}

// Request carries one generation call.
type Request struct {
	Model        string
	SystemPrompt string
	History      []store.Message
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// SanitizeHistory enforces strict role compliance on replayed history:
// blank messages are skipped and unknown roles fall back to user.
func SanitizeHistory(history []store.Message) []store.Message {
	out := make([]store.Message, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case store.MessageRoleUser, store.MessageRoleAssistant, store.MessageRoleSystem:
		default:
			msg.Role = store.MessageRoleUser
		}
		out = append(out, msg)
	}
	return out
}
