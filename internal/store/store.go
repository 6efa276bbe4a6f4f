// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package store defines the storage interfaces for the tenant vector index
// and the session message log, plus the backend registry that binds them to
// concrete implementations. All access is partitioned: vector data by tenant
// ID, session data by (tenant, session) key. Implementations must never leak
// records across partitions.
package store

import (
	"context"
	"time"
)

// VectorStore holds per-tenant collections of embedded document chunks and
// ranks them by cosine similarity against a query vector.
//
// Partitions grow without bound; there is no eviction. Clearing a partition
// requires recreating the store.
type VectorStore interface {
	// Append adds a chunk to the tenant's partition, creating the partition
	// on first write. The chunk's vector dimension must match the partition's
	// (fixed by the first append); a zero-length vector is rejected.
	Append(ctx context.Context, tenantID string, chunk Chunk) error

	// Search returns the min(topK, partition size) highest-scoring chunks,
	// ordered by descending cosine similarity. Among equal scores the chunk
	// appended later ranks first. A missing or empty partition, a
	// non-positive topK, and a zero-magnitude query all yield an empty
	// result without error.
	Search(ctx context.Context, tenantID string, query []float32, topK int) ([]SearchResult, error)

	Close() error
}

// SessionLog is the shared key-value backed message log for conversation
// memory. Append applies push, window trim, and TTL refresh as one atomic
// unit per key: a concurrent History call observes either none or all of
// those effects.
type SessionLog interface {
	// Append pushes msg to the end of the key's log, trims it to the last
	// window entries, and resets the key's expiry to ttl from now.
	Append(ctx context.Context, key SessionKey, msg Message, window int, ttl time.Duration) error

	// History returns the current log oldest-first. A missing or expired key
	// yields an empty slice.
	History(ctx context.Context, key SessionKey) ([]Message, error)

	// Clear deletes the key outright.
	Clear(ctx context.Context, key SessionKey) error

	Close() error
}
