// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/parley-dev/parley/internal/orchestrator"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
	"github.com/parley-dev/parley/pkg/health"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat",
		Summary:     "Run one chat turn for a tenant",
		Tags:        []string{"chat"},
	}, s.handleChat)

	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-text",
		Method:      http.MethodPost,
		Path:        "/api/v1/ingest/text",
		Summary:     "Index a text document for a tenant",
		Tags:        []string{"ingest"},
	}, s.handleIngestText)

	huma.Register(s.api, huma.Operation{
		OperationID: "query",
		Method:      http.MethodPost,
		Path:        "/api/v1/query",
		Summary:     "Retrieve ranked matches for a query",
		Tags:        []string{"query"},
	}, s.handleQuery)

	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service status and provider health",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "clear-session",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{tenantId}/sessions/{sessionId}",
		Summary:     "Delete a session's conversation history",
		Tags:        []string{"sessions"},
	}, s.handleClearSession)
}

// --- Request/Response types for huma ---

type chatInput struct {
	Body struct {
		TenantID  string `json:"tenant_id" minLength:"1" doc:"Tenant the turn belongs to"`
		SessionID string `json:"session_id,omitempty" doc:"Optional session ID, generated when empty"`
		Message   string `json:"message" minLength:"1" doc:"User message"`
		Model     string `json:"model,omitempty" doc:"Optional vendor/model override"`
	}
}
type chatOutput struct {
	Body struct {
		Response  string `json:"response" doc:"Assistant reply"`
		TenantID  string `json:"tenant_id"`
		SessionID string `json:"session_id" doc:"Session the turn was recorded under"`
	}
}

type ingestTextInput struct {
	Body struct {
		TenantID string `json:"tenant_id" minLength:"1" doc:"Tenant to index for"`
		Text     string `json:"text" minLength:"1" doc:"Document text"`
		Source   string `json:"source,omitempty" doc:"Source label attached to each chunk"`
	}
}
type ingestTextOutput struct {
	Body struct {
		Status        string `json:"status"`
		ChunksIndexed int    `json:"chunks_indexed"`
		ChunksFailed  int    `json:"chunks_failed"`
	}
}

type queryInput struct {
	Body struct {
		TenantID string `json:"tenant_id" minLength:"1" doc:"Tenant to search"`
		Query    string `json:"query" minLength:"1" doc:"Query text"`
	}
}
type queryOutput struct {
	Body struct {
		Results []queryResult `json:"results"`
	}
}
type queryResult struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type statusOutput struct {
	Body struct {
		Status    string                    `json:"status" example:"ok"`
		Providers map[string]health.Metrics `json:"providers"`
	}
}

type clearSessionInput struct {
	TenantID  string `path:"tenantId"`
	SessionID string `path:"sessionId"`
}
type clearSessionOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// --- Handlers ---

func (s *Server) handleChat(ctx context.Context, input *chatInput) (*chatOutput, error) {
	resp, err := s.services.Assistant.Chat(ctx, orchestrator.ChatRequest{
		TenantID:  input.Body.TenantID,
		SessionID: input.Body.SessionID,
		Message:   input.Body.Message,
		Model:     input.Body.Model,
	})
	if err != nil {
		return nil, mapError(err, "running chat turn")
	}

	out := &chatOutput{}
	out.Body.Response = resp.Reply
	out.Body.TenantID = resp.TenantID
	out.Body.SessionID = resp.SessionID
	return out, nil
}

func (s *Server) handleIngestText(ctx context.Context, input *ingestTextInput) (*ingestTextOutput, error) {
	source := input.Body.Source
	if source == "" {
		source = "Manual Text Input"
	}

	result, err := s.services.Assistant.Ingest(ctx, input.Body.TenantID, input.Body.Text, source)
	if err != nil {
		return nil, mapError(err, "ingesting document")
	}

	out := &ingestTextOutput{}
	out.Body.Status = "success"
	out.Body.ChunksIndexed = result.ChunksIndexed
	out.Body.ChunksFailed = result.ChunksFailed
	return out, nil
}

func (s *Server) handleQuery(ctx context.Context, input *queryInput) (*queryOutput, error) {
	results, err := s.services.Assistant.Query(ctx, input.Body.TenantID, input.Body.Query)
	if err != nil {
		return nil, mapError(err, "querying knowledge")
	}

	out := &queryOutput{}
	out.Body.Results = make([]queryResult, 0, len(results))
	for _, r := range results {
		out.Body.Results = append(out.Body.Results, queryResult{
			Text:   r.Text,
			Source: r.Source,
			Score:  r.Score,
		})
	}
	return out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Providers = map[string]health.Metrics{}
	if s.services.Providers != nil {
		out.Body.Providers = s.services.Providers.Health()
	}
	return out, nil
}

func (s *Server) handleClearSession(ctx context.Context, input *clearSessionInput) (*clearSessionOutput, error) {
	if err := s.services.Assistant.ClearSession(ctx, input.TenantID, input.SessionID); err != nil {
		return nil, mapError(err, "clearing session")
	}

	out := &clearSessionOutput{}
	out.Body.Status = "cleared"
	return out, nil
}

// mapError converts application errors into huma status errors, keeping
// internal detail out of client responses.
func mapError(err error, action string) error {
	switch parleyerr.HTTPStatus(err) {
	case http.StatusBadRequest:
		return huma.Error400BadRequest(err.Error())
	case http.StatusNotFound:
		return huma.Error404NotFound(err.Error())
	case http.StatusBadGateway:
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(action, err)
	}
}
