// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package rag

import (
	"context"
	"log/slog"

	"github.com/parley-dev/parley/internal/embeddings"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// IngestResult reports the outcome of a single document ingestion.
type IngestResult struct {
	ChunksIndexed int
	ChunksFailed  int
}

// Ingestor chunks documents, embeds each chunk, and appends the results
// to the tenant's vector partition.
type Ingestor struct {
	chunker  *Chunker
	embedder embeddings.Embedder
	vectors  store.VectorStore
	logger   *slog.Logger
}

// NewIngestor wires the ingestion pipeline. A nil logger falls back to
// slog.Default.
func NewIngestor(chunker *Chunker, embedder embeddings.Embedder, vectors store.VectorStore, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// Ingest splits text into chunks and indexes each one under tenantID with
// the given source label. A chunk whose embedding fails is dropped and
// counted, never retried; remaining chunks still proceed. Ingest returns
// an error only for invalid input or a store-level failure.
func (ing *Ingestor) Ingest(ctx context.Context, tenantID, text, source string) (IngestResult, error) {
	if tenantID == "" {
		return IngestResult{}, parleyerr.New(parleyerr.CodeIngestInputInvalid, "tenant id is required")
	}
	if text == "" {
		return IngestResult{}, parleyerr.New(parleyerr.CodeIngestInputInvalid, "document text is empty")
	}

	chunks := ing.chunker.Split(text)
	ing.logger.Info("ingesting document",
		"tenant_id", tenantID,
		"source", source,
		"chunks", len(chunks),
	)

	var result IngestResult
	for i, chunk := range chunks {
		vector, err := ing.embedder.Embed(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			ing.logger.Warn("dropping chunk after embedding failure",
				"tenant_id", tenantID,
				"source", source,
				"chunk", i,
				"error", err,
			)
			result.ChunksFailed++
			continue
		}

		err = ing.vectors.Append(ctx, tenantID, store.Chunk{
			Vector: vector,
			Text:   chunk,
			Source: source,
		})
		if err != nil {
			return result, parleyerr.Wrap(err, parleyerr.CodeStoreVectorAppendInvalid,
				"indexing chunk", parleyerr.FieldTenantID(tenantID), parleyerr.FieldSource(source))
		}
		result.ChunksIndexed++
	}

	return result, nil
}
