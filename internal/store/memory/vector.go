// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package memory provides the default in-process storage backends: a
// per-tenant append-only vector store and a TTL-aware session log.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/parley-dev/parley/internal/store"
)

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// partition holds one tenant's chunks. Appends are serialized by mu;
// searches take the read lock, so a reader never observes a chunk whose
// vector, text, and source are not all visible.
type partition struct {
	mu     sync.RWMutex
	dims   int
	chunks []store.Chunk
}

// VectorStore implements store.VectorStore with per-tenant in-memory
// partitions. Partitions grow without bound (no eviction); contents live
// until process restart.
type VectorStore struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{partitions: make(map[string]*partition)}
}

func (v *VectorStore) partitionFor(tenantID string, create bool) *partition {
	v.mu.RLock()
	p := v.partitions[tenantID]
	v.mu.RUnlock()
	if p != nil || !create {
		return p
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if p = v.partitions[tenantID]; p == nil {
		p = &partition{}
		v.partitions[tenantID] = p
	}
	return p
}

// Append adds a chunk to the tenant's partition, creating it on first write.
func (v *VectorStore) Append(_ context.Context, tenantID string, chunk store.Chunk) error {
	if tenantID == "" {
		return fmt.Errorf("appending chunk: empty tenant id: %w", store.ErrInvalidInput)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("appending chunk for %s: zero-length vector: %w", tenantID, store.ErrInvalidInput)
	}

	p := v.partitionFor(tenantID, true)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dims == 0 {
		p.dims = len(chunk.Vector)
	} else if p.dims != len(chunk.Vector) {
		return fmt.Errorf("appending chunk for %s: got %d dims, partition has %d: %w",
			tenantID, len(chunk.Vector), p.dims, store.ErrDimensionMismatch)
	}

	// Copy the vector so callers cannot mutate stored state.
	stored := store.Chunk{
		Vector: append([]float32(nil), chunk.Vector...),
		Text:   chunk.Text,
		Source: chunk.Source,
	}
	p.chunks = append(p.chunks, stored)
	return nil
}

// Search ranks the tenant's chunks by cosine similarity against query.
func (v *VectorStore) Search(_ context.Context, tenantID string, query []float32, topK int) ([]store.SearchResult, error) {
	p := v.partitionFor(tenantID, false)
	if p == nil || topK <= 0 {
		return nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.chunks) == 0 {
		return nil, nil
	}

	qnorm := norm(query)
	if qnorm == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(p.chunks))
	for i, c := range p.chunks {
		scores[i] = scored{idx: i, score: cosine(c.Vector, query, qnorm)}
	}

	// Stable ascending sort, then take the top k from the tail in reverse.
	// Stability keeps equal scores in insertion order, so the reversal
	// ranks the later-inserted chunk first among ties.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score < scores[j].score })

	k := topK
	if k > len(scores) {
		k = len(scores)
	}

	results := make([]store.SearchResult, 0, k)
	for i := len(scores) - 1; i >= len(scores)-k; i-- {
		c := p.chunks[scores[i].idx]
		results = append(results, store.SearchResult{
			Text:   c.Text,
			Source: c.Source,
			Score:  scores[i].score,
		})
	}
	return results, nil
}

// Close is a no-op for the in-memory backend.
func (v *VectorStore) Close() error { return nil }

func norm(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes (v · q) / (‖v‖‖q‖). Dimensions are equal by the append
// invariant; a shorter query is treated as zero-padded.
func cosine(vec, query []float32, qnorm float64) float64 {
	n := len(vec)
	if len(query) < n {
		n = len(query)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(vec[i]) * float64(query[i])
	}

	vnorm := norm(vec)
	if vnorm == 0 {
		return 0
	}
	return dot / (vnorm * qnorm)
}
