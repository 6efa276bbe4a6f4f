// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package embeddings wraps the external embedding service behind a single
// Embedder interface. The same Embed call is used for documents and queries;
// cosine comparison is only meaningful when both sides come from the same
// model.
package embeddings

import "context"

// Embedder converts text into an embedding vector. A failed call returns an
// error and no vector; callers are expected to drop the affected chunk or
// return empty search results rather than retrying. The generation path owns
// retries, this one does not.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
