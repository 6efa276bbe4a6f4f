// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parley-dev/parley/internal/embeddings"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// DefaultTopK is the number of chunks retrieved when no limit is configured.
const DefaultTopK = 3

// Retriever embeds a query and fetches the closest chunks from the
// tenant's partition.
type Retriever struct {
	embedder embeddings.Embedder
	vectors  store.VectorStore
	topK     int
	logger   *slog.Logger
}

// NewRetriever wires the retrieval side of the pipeline. Non-positive topK
// falls back to DefaultTopK; a nil logger falls back to slog.Default.
func NewRetriever(embedder embeddings.Embedder, vectors store.VectorStore, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		topK:     topK,
		logger:   logger,
	}
}

// Search returns the ranked matches for query within tenantID. An
// embedding failure degrades to no results rather than an error; the
// chat flow must not fail a turn because retrieval is unavailable.
func (r *Retriever) Search(ctx context.Context, tenantID, query string) ([]store.SearchResult, error) {
	if tenantID == "" {
		return nil, parleyerr.New(parleyerr.CodeQueryInputInvalid, "tenant id is required")
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("query embedding failed, skipping retrieval",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, nil
	}

	return r.vectors.Search(ctx, tenantID, vector, r.topK)
}

// Context retrieves matches for query and renders them as a single block
// for prompt assembly. No matches yields an empty string.
func (r *Retriever) Context(ctx context.Context, tenantID, query string) (string, error) {
	results, err := r.Search(ctx, tenantID, query)
	if err != nil {
		return "", err
	}
	return FormatContext(results), nil
}

// FormatContext renders search results as delimiter-separated blocks,
// best match first.
func FormatContext(results []store.SearchResult) string {
	var sb strings.Builder
	for _, res := range results {
		fmt.Fprintf(&sb, "---\nSource: %s\nContent: %s\n", res.Source, res.Text)
	}
	return sb.String()
}
