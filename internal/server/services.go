// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package server

import (
	"context"

	"github.com/parley-dev/parley/internal/orchestrator"
	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/rag"
	"github.com/parley-dev/parley/internal/store"
	"github.com/parley-dev/parley/pkg/health"
)

// Assistant is the application surface the HTTP layer depends on.
type Assistant interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (orchestrator.ChatResponse, error)
	Ingest(ctx context.Context, tenantID, text, source string) (rag.IngestResult, error)
	Query(ctx context.Context, tenantID, query string) ([]store.SearchResult, error)
	ClearSession(ctx context.Context, tenantID, sessionID string) error
}

var _ Assistant = (*orchestrator.Orchestrator)(nil)

// HealthSource reports per-vendor generation health.
type HealthSource interface {
	Health() map[string]health.Metrics
}

var _ HealthSource = (*provider.Registry)(nil)

// Services bundles the dependencies the REST routes call into.
type Services struct {
	Assistant Assistant
	Providers HealthSource // optional, status endpoint reports empty when nil
}
