// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package orchestrator coordinates a chat turn: session history,
// retrieval, generation with retry, and memory updates.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	sessionmem "github.com/parley-dev/parley/internal/memory"
	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/rag"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// Defaults applied when a request leaves generation parameters unset.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Retriever supplies ranked matches and a formatted context block for a
// tenant's query.
type Retriever interface {
	Search(ctx context.Context, tenantID, query string) ([]store.SearchResult, error)
	Context(ctx context.Context, tenantID, query string) (string, error)
}

// Ingestor indexes a document for a tenant.
type Ingestor interface {
	Ingest(ctx context.Context, tenantID, text, source string) (rag.IngestResult, error)
}

// Memory records and replays conversation history.
type Memory interface {
	Append(ctx context.Context, tenantID, sessionID string, role store.MessageRole, content string) error
	History(ctx context.Context, tenantID, sessionID string) []store.Message
	Clear(ctx context.Context, tenantID, sessionID string) error
}

// Compile-time checks that the concrete pipeline satisfies the seams.
var _ Retriever = (*rag.Retriever)(nil)
var _ Ingestor = (*rag.Ingestor)(nil)
var _ Memory = (*sessionmem.SessionMemory)(nil)

// ChatRequest is one user turn addressed to a tenant's assistant.
type ChatRequest struct {
	TenantID  string
	SessionID string
	Message   string
	Model     string // optional vendor/model override
}

// ChatResponse carries the assistant's reply and the session it belongs
// to. SessionID is generated when the request omitted one.
type ChatResponse struct {
	Reply     string
	TenantID  string
	SessionID string
}

// Orchestrator owns the chat, ingest, and query flows.
type Orchestrator struct {
	retriever Retriever
	ingestor  Ingestor
	memory    Memory
	registry  *provider.Registry
	modelRef  string
	logger    *slog.Logger
}

// New wires the orchestrator. modelRef is the default vendor/model used
// when a chat request does not override it. A nil logger falls back to
// slog.Default.
func New(retriever Retriever, ingestor Ingestor, memory Memory, registry *provider.Registry, modelRef string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		ingestor:  ingestor,
		memory:    memory,
		registry:  registry,
		modelRef:  modelRef,
		logger:    logger,
	}
}

// Chat runs one conversation turn. Retrieval and history failures degrade
// to an answer without them; generation failures degrade to an apology
// after retries are exhausted. The turn is recorded in memory either way
// so the conversation stays coherent.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.TenantID == "" {
		return ChatResponse{}, parleyerr.New(parleyerr.CodeChatInputInvalid, "tenant id is required")
	}
	if req.Message == "" {
		return ChatResponse{}, parleyerr.New(parleyerr.CodeChatInputInvalid, "message is empty")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	history := o.memory.History(ctx, req.TenantID, req.SessionID)

	contextBlock, err := o.retriever.Context(ctx, req.TenantID, req.Message)
	if err != nil {
		o.logger.Warn("retrieval failed, answering without context",
			"tenant_id", req.TenantID,
			"error", err,
		)
		contextBlock = ""
	}

	reply := o.generate(ctx, req, history, contextBlock)

	if err := o.memory.Append(ctx, req.TenantID, req.SessionID, store.MessageRoleUser, req.Message); err != nil {
		o.logger.Warn("failed to record user turn", "tenant_id", req.TenantID, "error", err)
	}
	if err := o.memory.Append(ctx, req.TenantID, req.SessionID, store.MessageRoleAssistant, reply); err != nil {
		o.logger.Warn("failed to record assistant turn", "tenant_id", req.TenantID, "error", err)
	}

	return ChatResponse{
		Reply:     reply,
		TenantID:  req.TenantID,
		SessionID: req.SessionID,
	}, nil
}

func (o *Orchestrator) generate(ctx context.Context, req ChatRequest, history []store.Message, contextBlock string) string {
	modelRef := req.Model
	if modelRef == "" {
		modelRef = o.modelRef
	}

	gen, model, err := o.registry.Resolve(modelRef)
	if err != nil {
		o.logger.Error("unusable model reference", "model", modelRef, "error", err)
		return apologyReply
	}

	policy := provider.DefaultRetryPolicy(gen.Retryable)
	reply, err := policy.Do(ctx, func(ctx context.Context) (string, error) {
		return gen.Generate(ctx, provider.Request{
			Model:        model,
			SystemPrompt: BuildSystemPrompt(contextBlock),
			History:      history,
			Prompt:       req.Message,
			Temperature:  defaultTemperature,
			MaxTokens:    defaultMaxTokens,
		})
	})
	if err != nil {
		o.registry.RecordFailure(gen.Name())
		o.logger.Error("generation failed",
			"tenant_id", req.TenantID,
			"provider", gen.Name(),
			"model", model,
			"error", err,
		)
		return apologyReply
	}
	o.registry.RecordSuccess(gen.Name())
	return reply
}

// Ingest indexes a document for a tenant.
func (o *Orchestrator) Ingest(ctx context.Context, tenantID, text, source string) (rag.IngestResult, error) {
	return o.ingestor.Ingest(ctx, tenantID, text, source)
}

// Query returns the ranked matches for a tenant's query without running
// a chat turn.
func (o *Orchestrator) Query(ctx context.Context, tenantID, query string) ([]store.SearchResult, error) {
	if tenantID == "" {
		return nil, parleyerr.New(parleyerr.CodeQueryInputInvalid, "tenant id is required")
	}
	if query == "" {
		return nil, parleyerr.New(parleyerr.CodeQueryInputInvalid, "query is empty")
	}
	return o.retriever.Search(ctx, tenantID, query)
}

// ClearSession removes a session's conversation history.
func (o *Orchestrator) ClearSession(ctx context.Context, tenantID, sessionID string) error {
	if tenantID == "" || sessionID == "" {
		return parleyerr.New(parleyerr.CodeChatInputInvalid, "tenant id and session id are required")
	}
	return o.memory.Clear(ctx, tenantID, sessionID)
}
