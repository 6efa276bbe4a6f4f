// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package sqlite provides a persistent tenant vector store backed by SQLite
// with the sqlite-vec extension. It honors the same ranking contract as the
// in-memory backend: descending cosine similarity, later-appended chunk first
// among equal scores.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/parley-dev/parley/internal/store"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore implements store.VectorStore backed by SQLite with sqlite-vec.
// The autoincrement seq column preserves insertion order for tie-breaking.
type VectorStore struct {
	db *sql.DB
}

// NewVectorStore opens (or creates) a SQLite database at dbPath and
// initialises the chunk table.
func NewVectorStore(dbPath string) (*VectorStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrateChunks(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating chunk tables: %w", err)
	}

	return &VectorStore{db: db}, nil
}

func migrateChunks(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tenant_chunks (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT UNIQUE NOT NULL,
	tenant_id TEXT NOT NULL,
	content   TEXT NOT NULL,
	source    TEXT NOT NULL DEFAULT '',
	dims      INTEGER NOT NULL,
	embedding BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tenant_chunks_tenant ON tenant_chunks(tenant_id);
`
	_, err := db.Exec(ddl)
	return err
}

// Append inserts a chunk into the tenant's partition. The partition's vector
// dimension is fixed by its first row.
func (v *VectorStore) Append(ctx context.Context, tenantID string, chunk store.Chunk) error {
	if tenantID == "" {
		return fmt.Errorf("appending chunk: empty tenant id: %w", store.ErrInvalidInput)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("appending chunk for %s: zero-length vector: %w", tenantID, store.ErrInvalidInput)
	}

	blob, err := sqlite_vec.SerializeFloat32(chunk.Vector)
	if err != nil {
		return fmt.Errorf("serializing embedding: %w", err)
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var dims int
	err = tx.QueryRowContext(ctx,
		`SELECT dims FROM tenant_chunks WHERE tenant_id = ? LIMIT 1`, tenantID).Scan(&dims)
	switch {
	case err == sql.ErrNoRows:
		// First write creates the partition.
	case err != nil:
		return fmt.Errorf("checking partition dims for %s: %w", tenantID, err)
	case dims != len(chunk.Vector):
		return fmt.Errorf("appending chunk for %s: got %d dims, partition has %d: %w",
			tenantID, len(chunk.Vector), dims, store.ErrDimensionMismatch)
	}

	const q = `INSERT INTO tenant_chunks (id, tenant_id, content, source, dims, embedding)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		uuid.NewString(), tenantID, chunk.Text, chunk.Source, len(chunk.Vector), blob); err != nil {
		return fmt.Errorf("inserting chunk for %s: %w", tenantID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunk append: %w", err)
	}
	return nil
}

// Search ranks the tenant's chunks by cosine similarity using
// vec_distance_cosine; score = 1 - distance.
func (v *VectorStore) Search(ctx context.Context, tenantID string, query []float32, topK int) ([]store.SearchResult, error) {
	if tenantID == "" || topK <= 0 {
		return nil, nil
	}
	if isZeroMagnitude(query) {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serializing query vector: %w", err)
	}

	const q = `
SELECT content, source, (1.0 - vec_distance_cosine(embedding, ?)) AS score
FROM tenant_chunks
WHERE tenant_id = ?
ORDER BY score DESC, seq DESC
LIMIT ?`
	rows, err := v.db.QueryContext(ctx, q, blob, tenantID, topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks for %s: %w", tenantID, err)
	}
	defer func() { _ = rows.Close() }()

	var results []store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.Text, &r.Source, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return results, nil
}

// Close closes the underlying database connection.
func (v *VectorStore) Close() error {
	return v.db.Close()
}

func isZeroMagnitude(vec []float32) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}
